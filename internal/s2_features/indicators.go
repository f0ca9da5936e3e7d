package s2_features

import "math"

// RollingMean returns the trailing mean over k values.
// The first k-1 positions average every value seen so far (minimum window 1).
func RollingMean(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	if k < 1 {
		k = 1
	}

	sum := 0.0
	for i, v := range x {
		sum += v
		if i >= k {
			sum -= x[i-k]
		}
		n := min(i+1, k)
		out[i] = sum / float64(n)
	}
	return out
}

// RollingStd returns the trailing sample standard deviation (n-1) over k values.
// A window holding a single value has no sample deviation and yields NaN.
func RollingStd(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	if k < 1 {
		k = 1
	}

	for i := range x {
		start := max(0, i-k+1)
		n := i - start + 1
		if n < 2 {
			out[i] = math.NaN()
			continue
		}

		mean := 0.0
		for _, v := range x[start : i+1] {
			mean += v
		}
		mean /= float64(n)

		ss := 0.0
		for _, v := range x[start : i+1] {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

// EWM returns the exponentially weighted mean with alpha = 2/(span+1).
// The recurrence is seeded with the first value and has no bias adjustment.
func EWM(x []float64, span int) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = alpha*x[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns EWM(x, 12) - EWM(x, 26)
func MACD(x []float64) []float64 {
	fast := EWM(x, 12)
	slow := EWM(x, 26)

	out := make([]float64, len(x))
	for i := range x {
		out[i] = fast[i] - slow[i]
	}
	return out
}

// MACDSignal returns the 9-span signal line of a MACD series
func MACDSignal(macd []float64) []float64 {
	return EWM(macd, 9)
}

// LogMomentum returns ln(x[t] / x[t-1]). The first value is NaN.
func LogMomentum(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(x[i] / x[i-1])
	}
	return out
}

// RSI returns the relative strength index over the trailing period deltas.
// Days with fewer deltas use what is available; day 0 has none and yields NaN.
// A window without losses yields 100.
func RSI(x []float64, period int) []float64 {
	out := make([]float64, len(x))
	if period < 1 {
		period = 1
	}

	for i := range x {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}

		var gains, losses float64
		start := max(1, i-period+1)
		for j := start; j <= i; j++ {
			delta := x[j] - x[j-1]
			if delta > 0 {
				gains += delta
			} else {
				losses -= delta
			}
		}

		n := float64(i - start + 1)
		avgGain, avgLoss := gains/n, losses/n
		if avgLoss == 0 {
			out[i] = 100.0
			continue
		}
		out[i] = 100.0 - 100.0/(1.0+avgGain/avgLoss)
	}
	return out
}

// BollingerBands returns ma ± width*sd
func BollingerBands(ma, sd []float64, width float64) (upper, lower []float64) {
	upper = make([]float64, len(ma))
	lower = make([]float64, len(ma))
	for i := range ma {
		upper[i] = ma[i] + width*sd[i]
		lower[i] = ma[i] - width*sd[i]
	}
	return upper, lower
}
