package s3_sentiment

import (
	"sort"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// TopicSummary 토픽별 감성 평균
type TopicSummary struct {
	TopicID      int     `json:"topic_id"`
	Keywords     string  `json:"keywords,omitempty"`
	PostCount    int     `json:"post_count"`
	MeanCompound float64 `json:"mean_compound"`

	// 확률이 있는 게시글만 평균 (ProbCount == 0이면 0)
	ProbCount    int     `json:"prob_count"`
	MeanPositive float64 `json:"mean_positive"`
	MeanNegative float64 `json:"mean_negative"`
	MeanNeutral  float64 `json:"mean_neutral"`
}

// SummarizeTopics averages sentiment per topic id, ordered by id (NoTopic first)
func SummarizeTopics(posts []contracts.ScoredPost) []TopicSummary {
	byID := make(map[int]*TopicSummary)

	for _, p := range posts {
		s, ok := byID[p.Topic.ID]
		if !ok {
			s = &TopicSummary{TopicID: p.Topic.ID}
			byID[p.Topic.ID] = s
		}
		if s.Keywords == "" {
			s.Keywords = p.Topic.Keywords
		}

		if contracts.IsFinite(p.Sentiment.Compound) {
			s.MeanCompound += p.Sentiment.Compound
			s.PostCount++
		}
		if p.Sentiment.HasProbabilities {
			s.MeanPositive += p.Sentiment.Positive
			s.MeanNegative += p.Sentiment.Negative
			s.MeanNeutral += p.Sentiment.Neutral
			s.ProbCount++
		}
	}

	out := make([]TopicSummary, 0, len(byID))
	for _, s := range byID {
		if s.PostCount > 0 {
			s.MeanCompound /= float64(s.PostCount)
		}
		if s.ProbCount > 0 {
			n := float64(s.ProbCount)
			s.MeanPositive /= n
			s.MeanNegative /= n
			s.MeanNeutral /= n
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TopicID < out[j].TopicID
	})
	return out
}
