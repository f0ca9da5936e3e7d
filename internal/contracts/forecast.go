package contracts

import (
	"fmt"
	"time"
)

// ForecastMode 예측 방식
type ForecastMode string

const (
	// ModeDirect 한 번의 추론으로 horizon 전체를 출력
	ModeDirect ForecastMode = "direct"
	// ModeAutoregressive 한 스텝씩 예측하고 히스토리에 다시 넣어 반복
	ModeAutoregressive ForecastMode = "autoregressive"
)

// IsValid reports whether m is a known mode
func (m ForecastMode) IsValid() bool {
	return m == ModeDirect || m == ModeAutoregressive
}

// ForecastConfig 모델 하이퍼파라미터 (고정 구조체)
// ⭐ SSOT: modelconfig → S5/S6
type ForecastConfig struct {
	SeqLength       int            `json:"seq_length" yaml:"seq_length"`
	Horizon         int            `json:"horizon" yaml:"horizon"`
	LearningRate    float64        `json:"learning_rate" yaml:"learning_rate"`
	Epochs          int            `json:"epochs" yaml:"epochs"`
	BatchSize       int            `json:"batch_size" yaml:"batch_size"`
	Patience        int            `json:"patience" yaml:"patience"`
	Seed            int64          `json:"seed" yaml:"seed"`
	ValidationSplit float64        `json:"validation_split" yaml:"validation_split"`
	HiddenUnits     int            `json:"hidden_units" yaml:"hidden_units"`
	Mode            ForecastMode   `json:"mode" yaml:"mode"`
	Steps           int            `json:"steps" yaml:"steps"` // 예측 스텝 수 (0이면 horizon)
	TargetColumn    string         `json:"target_column" yaml:"target_column"`
	MinWords        int            `json:"min_words" yaml:"min_words"`
	Features        FeatureOptions `json:"features" yaml:"features"`
}

// DefaultForecastConfig 기본 하이퍼파라미터
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		SeqLength:       20,
		Horizon:         5,
		LearningRate:    0.001,
		Epochs:          100,
		BatchSize:       16,
		Patience:        10,
		Seed:            42,
		ValidationSplit: 0.1,
		HiddenUnits:     32,
		Mode:            ModeDirect,
		Steps:           0,
		TargetColumn:    ColAdjClose,
		MinWords:        3,
		Features:        DefaultFeatureOptions(),
	}
}

// OutputSize returns how many values one inference call produces
func (c ForecastConfig) OutputSize() int {
	if c.Mode == ModeAutoregressive {
		return 1
	}
	return c.Horizon
}

// ForecastSteps returns the number of predicted values a run emits
func (c ForecastConfig) ForecastSteps() int {
	if c.Steps > 0 {
		return c.Steps
	}
	return c.Horizon
}

// Window is one supervised (history, target) pair in scaled space
// ⭐ SSOT: S5 → S6
type Window struct {
	Start   int         `json:"start"`   // 첫 히스토리 행 인덱스
	History [][]float64 `json:"history"` // seqLength x features
	Target  []float64   `json:"target"`  // horizon 값 (스케일된 타깃)
}

// Flatten returns the history rows concatenated in time order
func (w Window) Flatten() []float64 {
	if len(w.History) == 0 {
		return nil
	}
	out := make([]float64, 0, len(w.History)*len(w.History[0]))
	for _, row := range w.History {
		out = append(out, row...)
	}
	return out
}

// ForecastPoint 예측 결과 한 점 (역스케일 적용 후)
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Step      int       `json:"step"`
	Predicted float64   `json:"predicted"`
	Real      *float64  `json:"real,omitempty"`
}

// ForecastMetrics 예측 평가 지표
type ForecastMetrics struct {
	Count        int     `json:"count"`
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	MAPE         float64 `json:"mape"`          // 퍼센트
	DirectionHit float64 `json:"direction_hit"` // 방향 적중률 (0~1)
}

// String returns a one-line summary
func (m ForecastMetrics) String() string {
	return fmt.Sprintf("n=%d mae=%.4f rmse=%.4f mape=%.2f%% hit=%.2f",
		m.Count, m.MAE, m.RMSE, m.MAPE, m.DirectionHit)
}
