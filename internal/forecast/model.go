package forecast

import (
	"fmt"
	"math"
	"math/rand"
)

// Model is a two-layer dense network over a flattened history window:
// tanh hidden layer, linear output.
//
// 파라미터 배치 (단일 슬라이스):
//
//	[ W1 (hidden x input) | b1 (hidden) | W2 (output x hidden) | b2 (output) ]
type Model struct {
	Input  int       `json:"input"`
	Hidden int       `json:"hidden"`
	Output int       `json:"output"`
	Params []float64 `json:"params"`
}

// NewModel creates a model with Glorot-uniform weights and zero biases drawn from rng
func NewModel(input, hidden, output int, rng *rand.Rand) (*Model, error) {
	if input <= 0 || hidden <= 0 || output <= 0 {
		return nil, fmt.Errorf("invalid model shape %dx%dx%d", input, hidden, output)
	}
	m := &Model{Input: input, Hidden: hidden, Output: output}
	m.Params = make([]float64, m.size())

	glorot(m.w1(), input, hidden, rng)
	glorot(m.w2(), hidden, output, rng)
	return m, nil
}

func glorot(w []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}

func (m *Model) size() int {
	return m.Hidden*m.Input + m.Hidden + m.Output*m.Hidden + m.Output
}

func (m *Model) w1() []float64 { return m.Params[:m.Hidden*m.Input] }

func (m *Model) b1() []float64 {
	off := m.Hidden * m.Input
	return m.Params[off : off+m.Hidden]
}

func (m *Model) w2() []float64 {
	off := m.Hidden*m.Input + m.Hidden
	return m.Params[off : off+m.Output*m.Hidden]
}

func (m *Model) b2() []float64 {
	off := m.Hidden*m.Input + m.Hidden + m.Output*m.Hidden
	return m.Params[off:]
}

// Predict runs one forward pass
func (m *Model) Predict(x []float64) ([]float64, error) {
	if len(x) != m.Input {
		return nil, fmt.Errorf("model expects %d inputs, got %d", m.Input, len(x))
	}
	_, y := m.forward(x)
	return y, nil
}

func (m *Model) forward(x []float64) (h, y []float64) {
	w1, b1, w2, b2 := m.w1(), m.b1(), m.w2(), m.b2()

	h = make([]float64, m.Hidden)
	for j := 0; j < m.Hidden; j++ {
		z := b1[j]
		row := w1[j*m.Input : (j+1)*m.Input]
		for i, v := range x {
			z += row[i] * v
		}
		h[j] = math.Tanh(z)
	}

	y = make([]float64, m.Output)
	for k := 0; k < m.Output; k++ {
		z := b2[k]
		row := w2[k*m.Hidden : (k+1)*m.Hidden]
		for j, v := range h {
			z += row[j] * v
		}
		y[k] = z
	}
	return h, y
}

// accumulate adds the MSE gradient of one sample into grad and returns its squared error sum.
// scale is 2/(batch*output).
func (m *Model) accumulate(x, target []float64, scale float64, grad []float64) float64 {
	h, y := m.forward(x)
	w2 := m.w2()

	off1 := m.Hidden * m.Input
	off2 := off1 + m.Hidden
	off3 := off2 + m.Output*m.Hidden

	dh := make([]float64, m.Hidden)
	var sq float64
	for k := 0; k < m.Output; k++ {
		diff := y[k] - target[k]
		sq += diff * diff
		dy := scale * diff

		grad[off3+k] += dy
		for j := 0; j < m.Hidden; j++ {
			grad[off2+k*m.Hidden+j] += dy * h[j]
			dh[j] += dy * w2[k*m.Hidden+j]
		}
	}

	for j := 0; j < m.Hidden; j++ {
		dz := dh[j] * (1 - h[j]*h[j])
		grad[off1+j] += dz
		row := grad[j*m.Input : (j+1)*m.Input]
		for i, v := range x {
			row[i] += dz * v
		}
	}
	return sq
}

// Clone returns a deep copy
func (m *Model) Clone() *Model {
	c := *m
	c.Params = make([]float64, len(m.Params))
	copy(c.Params, m.Params)
	return &c
}
