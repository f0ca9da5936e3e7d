package quality

import (
	"time"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// QualityGate validates data quality and generates snapshots
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinPriceCoverage     float64 `yaml:"min_price_coverage"`     // 0.9
	MinPostCoverage      float64 `yaml:"min_post_coverage"`      // 0.5
	MinSentimentCoverage float64 `yaml:"min_sentiment_coverage"` // 0.5
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:     0.9,
		MinPostCoverage:      0.5,
		MinSentimentCoverage: 0.5,
	}
}

// Input 품질 계산에 쓰이는 행 수
type Input struct {
	Date   time.Time
	Ticker string

	PriceRows      int // CSV 가격 행
	ValidPriceRows int // 정제 후 남은 행
	Posts          int // CSV 게시글 행
	ValidPosts     int // 정규화/필터 후 남은 게시글
	MergedRows     int // 병합 후 행
	ObservedDays   int // 병합 행 중 당일 감성 관측이 있는 행 (forward-fill 제외)
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Check builds a quality snapshot from pipeline row counts
// ⭐ SSOT: S0 → S2 품질 검증
func (g *QualityGate) Check(in Input) *contracts.DataQualitySnapshot {
	snapshot := &contracts.DataQualitySnapshot{
		Date:       in.Date,
		Ticker:     in.Ticker,
		TotalRows:  in.PriceRows,
		ValidRows:  in.ValidPriceRows,
		TotalPosts: in.Posts,
		ValidPosts: in.ValidPosts,
		Coverage:   g.checkCoverage(in),
	}

	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)
	snapshot.Passed = snapshot.Coverage["price"] >= g.config.MinPriceCoverage &&
		snapshot.Coverage["posts"] >= g.config.MinPostCoverage &&
		snapshot.Coverage["sentiment"] >= g.config.MinSentimentCoverage

	return snapshot
}

// checkCoverage calculates coverage for each data type
func (g *QualityGate) checkCoverage(in Input) map[string]float64 {
	return map[string]float64{
		"price":     ratio(in.ValidPriceRows, in.PriceRows),
		"posts":     ratio(in.ValidPosts, in.Posts),
		"sentiment": ratio(in.ObservedDays, in.MergedRows),
	}
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		"price":     0.50, // 가격 데이터 필수
		"posts":     0.20,
		"sentiment": 0.30,
	}

	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}

	return score
}

func ratio(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total)
}
