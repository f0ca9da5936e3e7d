package modelconfig

import (
	"fmt"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Window ===
	if cfg.Window.SeqLength < 1 {
		return ValidationError{"window.seq_length", "must be >= 1"}
	}
	if cfg.Window.Horizon < 1 {
		return ValidationError{"window.horizon", "must be >= 1"}
	}
	if cfg.Window.Steps < 0 {
		return ValidationError{"window.steps", "must be >= 0"}
	}
	mode := contracts.ForecastMode(cfg.Window.Mode)
	if !mode.IsValid() {
		return ValidationError{"window.mode", "must be 'direct' or 'autoregressive'"}
	}
	// direct 모드는 한 번에 horizon 개만 출력
	if mode == contracts.ModeDirect && cfg.Window.Steps > cfg.Window.Horizon {
		return ValidationError{"window.steps", "must be <= horizon in direct mode"}
	}

	// === Training ===
	if cfg.Training.LearningRate <= 0 || cfg.Training.LearningRate > 1 {
		return ValidationError{"training.learning_rate", "must be in (0, 1]"}
	}
	if cfg.Training.Epochs < 1 {
		return ValidationError{"training.epochs", "must be >= 1"}
	}
	if cfg.Training.BatchSize < 1 {
		return ValidationError{"training.batch_size", "must be >= 1"}
	}
	if cfg.Training.Patience < 1 {
		return ValidationError{"training.patience", "must be >= 1"}
	}
	if cfg.Training.ValidationSplit < 0 || cfg.Training.ValidationSplit >= 1 {
		return ValidationError{"training.validation_split", "must be in [0, 1)"}
	}
	if cfg.Training.HiddenUnits < 1 {
		return ValidationError{"training.hidden_units", "must be >= 1"}
	}

	// === Features ===
	if cfg.Features.IncludeRSI && cfg.Features.RSIPeriod < 1 {
		return ValidationError{"features.rsi_period", "must be >= 1 when include_rsi"}
	}
	opts := contracts.FeatureOptions{IncludeRSI: cfg.Features.IncludeRSI, IncludeSignal: cfg.Features.IncludeSignal}
	if contracts.ColumnIndex(contracts.FeatureColumns(opts), cfg.Features.TargetColumn) < 0 {
		return ValidationError{"features.target_column", fmt.Sprintf("unknown column %q", cfg.Features.TargetColumn)}
	}

	// === Text ===
	if cfg.Text.MinWords < 0 {
		return ValidationError{"text.min_words", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 검증 구간이 없으면 train loss로 조기 종료
	if cfg.Training.ValidationSplit == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_VALIDATION",
			Message: "validation_split = 0: early stopping monitors training loss",
		})
	}

	if cfg.Training.Patience >= cfg.Training.Epochs {
		warnings = append(warnings, Warning{
			Code:    "PATIENCE_UNUSED",
			Message: "patience >= epochs: early stopping never triggers",
		})
	}

	// 타깃 외 컬럼 예측은 원 논문 설정과 다름
	if cfg.Features.TargetColumn != contracts.ColAdjClose {
		warnings = append(warnings, Warning{
			Code:    "NON_DEFAULT_TARGET",
			Message: fmt.Sprintf("target column %q instead of %q", cfg.Features.TargetColumn, contracts.ColAdjClose),
		})
	}

	return warnings
}
