package s3_sentiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s1_text"
)

// Scorer maps normalized texts to sentiment scores, one per text, in order
type Scorer interface {
	Score(ctx context.Context, texts []string) ([]contracts.SentimentScore, error)
}

// TopicClassifier maps normalized texts to topic labels, one per text, in order
type TopicClassifier interface {
	Classify(ctx context.Context, texts []string) ([]contracts.TopicLabel, error)
}

// NoTopics labels every text with contracts.NoTopic
type NoTopics struct{}

// Classify implements TopicClassifier
func (NoTopics) Classify(_ context.Context, texts []string) ([]contracts.TopicLabel, error) {
	out := make([]contracts.TopicLabel, len(texts))
	for i := range out {
		out[i] = contracts.TopicLabel{ID: contracts.NoTopic}
	}
	return out, nil
}

// AnnotateStats 게시글 처리 통계
type AnnotateStats struct {
	Input     int `json:"input"`
	TooShort  int `json:"too_short"`
	PreScored int `json:"pre_scored"`
	Scored    int `json:"scored"`
	Kept      int `json:"kept"`
}

// Annotator normalizes posts and attaches sentiment and topic labels
type Annotator struct {
	scorer    Scorer
	topics    TopicClassifier
	minWords  int
	batchSize int
	log       zerolog.Logger
}

// NewAnnotator creates an annotator. scorer may be nil when every post is pre-scored.
func NewAnnotator(scorer Scorer, topics TopicClassifier, minWords, batchSize int, log zerolog.Logger) *Annotator {
	if topics == nil {
		topics = NoTopics{}
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Annotator{
		scorer:    scorer,
		topics:    topics,
		minWords:  minWords,
		batchSize: batchSize,
		log:       log.With().Str("component", "s3_sentiment.annotator").Logger(),
	}
}

type pending struct {
	post  contracts.Post
	text  string
	index int
}

// Annotate normalizes title+body of every post, drops posts shorter than
// minWords, then scores the rest. Reposts of the same text are kept and
// each counts toward the daily mean.
// Pre-scored posts keep their scores and skip the collaborators.
func (a *Annotator) Annotate(ctx context.Context, posts []contracts.Post) ([]contracts.ScoredPost, AnnotateStats, error) {
	stats := AnnotateStats{Input: len(posts)}

	out := make([]contracts.ScoredPost, 0, len(posts))
	var needScore, needTopic []pending

	for _, p := range posts {
		text := s1_text.Normalize(s1_text.CombinePost(p.Title, p.RawText))
		if s1_text.WordCount(text) < a.minWords {
			stats.TooShort++
			continue
		}

		day := contracts.TruncateDay(p.Timestamp)

		sp := contracts.ScoredPost{
			Date:      day,
			Timestamp: p.Timestamp,
			Source:    p.Source,
			Ticker:    p.Ticker,
			Text:      text,
			Topic:     contracts.TopicLabel{ID: contracts.NoTopic},
		}
		idx := len(out)

		if p.PreScored != nil {
			sp.Sentiment = *p.PreScored
			stats.PreScored++
		} else {
			needScore = append(needScore, pending{post: p, text: text, index: idx})
		}
		if p.PreTopic != nil {
			sp.Topic = *p.PreTopic
		} else {
			needTopic = append(needTopic, pending{post: p, text: text, index: idx})
		}
		out = append(out, sp)
	}

	if len(needScore) > 0 && a.scorer == nil {
		return nil, stats, &contracts.DataValidationError{
			Stage:   contracts.StageSentiment,
			Field:   "compound",
			Message: fmt.Sprintf("%d posts have no sentiment score and no scorer is configured", len(needScore)),
		}
	}

	if err := a.scoreBatches(ctx, needScore, out); err != nil {
		return nil, stats, err
	}
	stats.Scored = len(needScore)

	if err := a.classifyBatches(ctx, needTopic, out); err != nil {
		return nil, stats, err
	}

	stats.Kept = len(out)
	a.log.Info().
		Int("input", stats.Input).
		Int("too_short", stats.TooShort).
		Int("pre_scored", stats.PreScored).
		Int("scored", stats.Scored).
		Msg("annotated posts")

	return out, stats, nil
}

func (a *Annotator) scoreBatches(ctx context.Context, items []pending, out []contracts.ScoredPost) error {
	for start := 0; start < len(items); start += a.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := items[start:min(start+a.batchSize, len(items))]

		scores, err := a.scorer.Score(ctx, texts(batch))
		if err != nil {
			return fmt.Errorf("score batch at %d: %w", start, err)
		}
		if len(scores) != len(batch) {
			return &contracts.DataValidationError{
				Stage:   contracts.StageSentiment,
				Message: fmt.Sprintf("scorer returned %d scores for %d texts", len(scores), len(batch)),
			}
		}
		for i, item := range batch {
			out[item.index].Sentiment = scores[i]
		}
	}
	return nil
}

func (a *Annotator) classifyBatches(ctx context.Context, items []pending, out []contracts.ScoredPost) error {
	for start := 0; start < len(items); start += a.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := items[start:min(start+a.batchSize, len(items))]

		labels, err := a.topics.Classify(ctx, texts(batch))
		if err != nil {
			return fmt.Errorf("classify batch at %d: %w", start, err)
		}
		if len(labels) != len(batch) {
			return &contracts.DataValidationError{
				Stage:   contracts.StageSentiment,
				Message: fmt.Sprintf("topic classifier returned %d labels for %d texts", len(labels), len(batch)),
			}
		}
		for i, item := range batch {
			out[item.index].Topic = labels[i]
		}
	}
	return nil
}

func texts(items []pending) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.text
	}
	return out
}
