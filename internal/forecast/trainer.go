package forecast

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s5_window"
)

// TrainReport 학습 결과 요약
type TrainReport struct {
	TrainWindows int       `json:"train_windows"`
	ValWindows   int       `json:"val_windows"`
	Epochs       int       `json:"epochs"`     // 실제 수행한 epoch 수
	BestEpoch    int       `json:"best_epoch"` // 1부터 시작
	BestLoss     float64   `json:"best_loss"`  // 모니터링 손실 (val 없으면 train)
	StoppedEarly bool      `json:"stopped_early"`
	TrainLoss    []float64 `json:"train_loss"`
	ValLoss      []float64 `json:"val_loss,omitempty"`
}

// Trainer fits a Model on windows with Adam, minibatches and early stopping
type Trainer struct {
	cfg contracts.ForecastConfig
	log zerolog.Logger
}

// NewTrainer 새 학습기 생성
func NewTrainer(cfg contracts.ForecastConfig, log zerolog.Logger) *Trainer {
	return &Trainer{
		cfg: cfg,
		log: log.With().Str("component", "forecast.trainer").Logger(),
	}
}

// Train minimizes MSE on the window targets.
// The trailing ValidationSplit fraction of windows is held out and monitored;
// training stops after Patience epochs without improvement and the best
// parameters are restored. Weight init and shuffling draw from one rng seeded
// with cfg.Seed, so equal inputs give equal models.
func (t *Trainer) Train(ctx context.Context, windows []contracts.Window) (*Model, *TrainReport, error) {
	if err := s5_window.RequireWindows(windows, 1); err != nil {
		return nil, nil, err
	}

	out := t.cfg.OutputSize()
	xs := make([][]float64, len(windows))
	ys := make([][]float64, len(windows))
	for i, w := range windows {
		if len(w.Target) != out {
			return nil, nil, &contracts.DataValidationError{
				Stage:   contracts.StageForecast,
				Message: fmt.Sprintf("window %d has %d targets, model outputs %d", i, len(w.Target), out),
			}
		}
		xs[i] = w.Flatten()
		ys[i] = w.Target
		if i > 0 && len(xs[i]) != len(xs[0]) {
			return nil, nil, &contracts.DataValidationError{
				Stage:   contracts.StageForecast,
				Message: fmt.Sprintf("window %d has %d inputs, expected %d", i, len(xs[i]), len(xs[0])),
			}
		}
	}

	nTrain := TrainCount(len(windows), t.cfg.ValidationSplit)
	if t.cfg.ValidationSplit > 0 && nTrain == len(windows) {
		t.log.Warn().
			Int("windows", len(windows)).
			Float64("validation_split", t.cfg.ValidationSplit).
			Msg("too few windows for a validation set, early stopping monitors training loss")
	}
	trainX, trainY := xs[:nTrain], ys[:nTrain]
	valX, valY := xs[nTrain:], ys[nTrain:]

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	model, err := NewModel(len(xs[0]), t.cfg.HiddenUnits, out, rng)
	if err != nil {
		return nil, nil, err
	}
	opt := newAdam(t.cfg.LearningRate, len(model.Params))

	batchSize := t.cfg.BatchSize
	if batchSize <= 0 || batchSize > nTrain {
		batchSize = nTrain
	}
	patience := max(t.cfg.Patience, 1)

	report := &TrainReport{TrainWindows: nTrain, ValWindows: len(valX), BestLoss: math.Inf(1)}
	best := model.Clone()
	wait := 0

	order := make([]int, nTrain)
	for i := range order {
		order[i] = i
	}
	grad := make([]float64, len(model.Params))

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var sq float64
		for start := 0; start < nTrain; start += batchSize {
			idx := order[start:min(start+batchSize, nTrain)]
			clear(grad)
			scale := 2 / float64(len(idx)*out)
			for _, k := range idx {
				sq += model.accumulate(trainX[k], trainY[k], scale, grad)
			}
			opt.step(model.Params, grad)
		}
		trainLoss := sq / float64(nTrain*out)
		report.TrainLoss = append(report.TrainLoss, trainLoss)
		report.Epochs = epoch

		monitored := trainLoss
		if len(valX) > 0 {
			monitored = Loss(model, valX, valY)
			report.ValLoss = append(report.ValLoss, monitored)
		}

		if monitored < report.BestLoss {
			report.BestLoss = monitored
			report.BestEpoch = epoch
			best = model.Clone()
			wait = 0
		} else {
			wait++
			if wait >= patience {
				report.StoppedEarly = true
				t.log.Debug().Int("epoch", epoch).Int("best_epoch", report.BestEpoch).Msg("early stopping")
				break
			}
		}
	}

	t.log.Info().
		Int("train_windows", report.TrainWindows).
		Int("val_windows", report.ValWindows).
		Int("epochs", report.Epochs).
		Int("best_epoch", report.BestEpoch).
		Float64("best_loss", report.BestLoss).
		Msg("training completed")

	return best, report, nil
}

// TrainCount returns how many leading windows are trained on.
// Keras validation_split: 뒤쪽 n - int(n*(1-split)) 개가 검증용, 학습은 최소 1개
func TrainCount(n int, split float64) int {
	if n <= 0 {
		return 0
	}
	return min(max(int(float64(n)*(1-split)), 1), n)
}

// Loss returns the mean squared error of model over (xs, ys)
func Loss(model *Model, xs, ys [][]float64) float64 {
	var sq float64
	var n int
	for i, x := range xs {
		_, y := model.forward(x)
		for k, v := range y {
			d := v - ys[i][k]
			sq += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sq / float64(n)
}
