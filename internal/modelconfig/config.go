package modelconfig

import "github.com/wonny/sentiforecast/internal/contracts"

// Config는 예측 모델의 전체 하이퍼파라미터 설정
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Window   Window   `yaml:"window" json:"window"`
	Training Training `yaml:"training" json:"training"`
	Features Features `yaml:"features" json:"features"`
	Text     Text     `yaml:"text" json:"text"`
}

// Meta 메타 정보
type Meta struct {
	ModelID string `yaml:"model_id" json:"model_id"`
	Version string `yaml:"version" json:"version"`
}

// Window S5: 윈도우/예측 구간
type Window struct {
	SeqLength int    `yaml:"seq_length" json:"seq_length"`
	Horizon   int    `yaml:"horizon" json:"horizon"`
	Steps     int    `yaml:"steps" json:"steps"` // 0이면 horizon
	Mode      string `yaml:"mode" json:"mode"`   // direct | autoregressive
}

// Training S6: 학습 설정
type Training struct {
	LearningRate    float64 `yaml:"learning_rate" json:"learning_rate"`
	Epochs          int     `yaml:"epochs" json:"epochs"`
	BatchSize       int     `yaml:"batch_size" json:"batch_size"`
	Patience        int     `yaml:"patience" json:"patience"`
	Seed            int64   `yaml:"seed" json:"seed"`
	ValidationSplit float64 `yaml:"validation_split" json:"validation_split"`
	HiddenUnits     int     `yaml:"hidden_units" json:"hidden_units"`
}

// Features S2/S4: 지표 및 타깃
type Features struct {
	IncludeRSI    bool   `yaml:"include_rsi" json:"include_rsi"`
	RSIPeriod     int    `yaml:"rsi_period" json:"rsi_period"`
	IncludeSignal bool   `yaml:"include_signal" json:"include_signal"`
	TargetColumn  string `yaml:"target_column" json:"target_column"`
}

// Text S1/S3: 게시글 필터
type Text struct {
	MinWords int `yaml:"min_words" json:"min_words"`
}

// Default returns the built-in configuration
func Default() *Config {
	d := contracts.DefaultForecastConfig()
	return &Config{
		Meta: Meta{ModelID: "sentiment_mlp", Version: "1"},
		Window: Window{
			SeqLength: d.SeqLength,
			Horizon:   d.Horizon,
			Steps:     d.Steps,
			Mode:      string(d.Mode),
		},
		Training: Training{
			LearningRate:    d.LearningRate,
			Epochs:          d.Epochs,
			BatchSize:       d.BatchSize,
			Patience:        d.Patience,
			Seed:            d.Seed,
			ValidationSplit: d.ValidationSplit,
			HiddenUnits:     d.HiddenUnits,
		},
		Features: Features{
			IncludeRSI:    d.Features.IncludeRSI,
			RSIPeriod:     d.Features.RSIPeriod,
			IncludeSignal: d.Features.IncludeSignal,
			TargetColumn:  d.TargetColumn,
		},
		Text: Text{MinWords: d.MinWords},
	}
}

// Forecast returns the fixed pipeline configuration
// ⭐ SSOT: YAML → contracts.ForecastConfig 변환은 여기서만
func (c *Config) Forecast() contracts.ForecastConfig {
	return contracts.ForecastConfig{
		SeqLength:       c.Window.SeqLength,
		Horizon:         c.Window.Horizon,
		LearningRate:    c.Training.LearningRate,
		Epochs:          c.Training.Epochs,
		BatchSize:       c.Training.BatchSize,
		Patience:        c.Training.Patience,
		Seed:            c.Training.Seed,
		ValidationSplit: c.Training.ValidationSplit,
		HiddenUnits:     c.Training.HiddenUnits,
		Mode:            contracts.ForecastMode(c.Window.Mode),
		Steps:           c.Window.Steps,
		TargetColumn:    c.Features.TargetColumn,
		MinWords:        c.Text.MinWords,
		Features: contracts.FeatureOptions{
			IncludeRSI:    c.Features.IncludeRSI,
			RSIPeriod:     c.Features.RSIPeriod,
			IncludeSignal: c.Features.IncludeSignal,
		},
	}
}
