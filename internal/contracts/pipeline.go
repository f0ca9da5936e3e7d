package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7
//   Ingest  Text  Features  Sentiment  Dataset  Window  Forecast  Output

// Stage represents a pipeline stage
type Stage string

const (
	// StageIngest S0: 원천 데이터 로드 및 품질 검증
	// 위치: internal/s0_data/
	StageIngest Stage = "S0_INGEST"

	// StageText S1: 게시글 텍스트 정규화
	// 위치: internal/s1_text/
	StageText Stage = "S1_TEXT"

	// StageFeatures S2: 가격 정제 및 기술적 지표
	// 위치: internal/s2_features/
	StageFeatures Stage = "S2_FEATURES"

	// StageSentiment S3: 일별 감성 집계
	// 위치: internal/s3_sentiment/
	StageSentiment Stage = "S3_SENTIMENT"

	// StageDataset S4: 병합, 분할, 스케일링
	// 위치: internal/s4_dataset/
	StageDataset Stage = "S4_DATASET"

	// StageWindow S5: 학습 윈도우 생성
	// 위치: internal/s5_window/
	StageWindow Stage = "S5_WINDOW"

	// StageForecast S6: 모델 학습 및 예측
	// 위치: internal/forecast/
	StageForecast Stage = "S6_FORECAST"

	// StageOutput S7: 결과 저장
	// 위치: internal/saver/
	StageOutput Stage = "S7_OUTPUT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageIngest:
		return "S0"
	case StageText:
		return "S1"
	case StageFeatures:
		return "S2"
	case StageSentiment:
		return "S3"
	case StageDataset:
		return "S4"
	case StageWindow:
		return "S5"
	case StageForecast:
		return "S6"
	case StageOutput:
		return "S7"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageIngest:
		return "데이터 로드/품질 검증"
	case StageText:
		return "텍스트 정규화"
	case StageFeatures:
		return "가격 정제/지표 계산"
	case StageSentiment:
		return "일별 감성 집계"
	case StageDataset:
		return "병합/분할/스케일링"
	case StageWindow:
		return "시퀀스 윈도우"
	case StageForecast:
		return "학습/예측"
	case StageOutput:
		return "결과 저장"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageIngest,
		StageText,
		StageFeatures,
		StageSentiment,
		StageDataset,
		StageWindow,
		StageForecast,
		StageOutput,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
