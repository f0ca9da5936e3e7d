// Package inference calls the out-of-process sentiment and topic models.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/pkg/config"
	"github.com/wonny/sentiforecast/pkg/httputil"
	"github.com/wonny/sentiforecast/pkg/redis"
)

// Default model names sent to the endpoint and used in cache keys
const (
	DefaultSentimentModel = "vader"
	DefaultTopicModel     = "bertopic"
)

// Client implements the sentiment scorer and topic classifier over HTTP.
// Results are cached per (model, normalized text).
// ⭐ SSOT: 감성/토픽 추론 호출은 이 클라이언트에서만
type Client struct {
	http           *httputil.Client
	cache          *redis.Cache
	baseURL        string
	sentimentModel string
	topicModel     string
	cacheTTL       time.Duration
	log            zerolog.Logger
}

// NewClient creates an inference client. cache may wrap a disabled redis client.
func NewClient(cfg config.InferenceConfig, httpClient *httputil.Client, cache *redis.Cache, log zerolog.Logger) *Client {
	if cfg.APIKey != "" {
		httpClient.WithHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = redis.TTLWeekly
	}
	return &Client{
		http:           httpClient,
		cache:          cache,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		sentimentModel: DefaultSentimentModel,
		topicModel:     DefaultTopicModel,
		cacheTTL:       ttl,
		log:            log.With().Str("component", "inference.client").Logger(),
	}
}

// WithModels overrides the model names
func (c *Client) WithModels(sentiment, topic string) *Client {
	if sentiment != "" {
		c.sentimentModel = sentiment
	}
	if topic != "" {
		c.topicModel = topic
	}
	return c
}

type textsRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type sentimentResponse struct {
	Scores []scorePayload `json:"scores"`
}

type scorePayload struct {
	Compound float64  `json:"compound"`
	Positive *float64 `json:"positive,omitempty"`
	Negative *float64 `json:"negative,omitempty"`
	Neutral  *float64 `json:"neutral,omitempty"`
}

func (p scorePayload) score() contracts.SentimentScore {
	s := contracts.SentimentScore{Compound: p.Compound}
	if p.Positive != nil && p.Negative != nil && p.Neutral != nil {
		s.Positive, s.Negative, s.Neutral = *p.Positive, *p.Negative, *p.Neutral
		s.HasProbabilities = true
	}
	return s
}

type topicResponse struct {
	Topics []contracts.TopicLabel `json:"topics"`
}

// Score returns one sentiment score per text, in order
func (c *Client) Score(ctx context.Context, texts []string) ([]contracts.SentimentScore, error) {
	return cached(ctx, c, "sentiment", c.sentimentModel, texts, func(ctx context.Context, misses []string) ([]contracts.SentimentScore, error) {
		var resp sentimentResponse
		if err := c.http.DoJSON(ctx, c.baseURL+"/v1/sentiment", textsRequest{Model: c.sentimentModel, Texts: misses}, &resp); err != nil {
			return nil, fmt.Errorf("sentiment request: %w", err)
		}
		out := make([]contracts.SentimentScore, len(resp.Scores))
		for i, p := range resp.Scores {
			out[i] = p.score()
		}
		return out, nil
	})
}

// Classify returns one topic label per text, in order
func (c *Client) Classify(ctx context.Context, texts []string) ([]contracts.TopicLabel, error) {
	return cached(ctx, c, "topic", c.topicModel, texts, func(ctx context.Context, misses []string) ([]contracts.TopicLabel, error) {
		var resp topicResponse
		if err := c.http.DoJSON(ctx, c.baseURL+"/v1/topics", textsRequest{Model: c.topicModel, Texts: misses}, &resp); err != nil {
			return nil, fmt.Errorf("topic request: %w", err)
		}
		return resp.Topics, nil
	})
}

// cached serves texts from the cache and sends only the misses to fetch.
// fetch must return exactly one result per miss.
func cached[T any](ctx context.Context, c *Client, kind, model string, texts []string, fetch func(context.Context, []string) ([]T, error)) ([]T, error) {
	out := make([]T, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = redis.TextKey(kind, model, t)
	}

	hits, err := c.cache.GetMany(ctx, keys)
	if err != nil {
		// 캐시 장애는 추론 호출로 대체
		c.log.Warn().Err(err).Str("kind", kind).Msg("cache lookup failed")
		hits = map[string][]byte{}
	}

	var missIdx []int
	var misses []string
	pending := make(map[string][]int) // 같은 텍스트는 한 번만 요청
	for i, k := range keys {
		if raw, ok := hits[k]; ok {
			if err := json.Unmarshal(raw, &out[i]); err == nil {
				continue
			}
		}
		if idx, dup := pending[k]; dup {
			pending[k] = append(idx, i)
			continue
		}
		pending[k] = []int{i}
		missIdx = append(missIdx, i)
		misses = append(misses, texts[i])
	}

	if len(misses) > 0 {
		results, err := fetch(ctx, misses)
		if err != nil {
			return nil, err
		}
		if len(results) != len(misses) {
			return nil, &contracts.DataValidationError{
				Stage:   contracts.StageSentiment,
				Message: fmt.Sprintf("%s endpoint returned %d results for %d texts", kind, len(results), len(misses)),
			}
		}

		toCache := make(map[string]interface{}, len(results))
		for j, i := range missIdx {
			k := keys[i]
			for _, target := range pending[k] {
				out[target] = results[j]
			}
			toCache[k] = results[j]
		}
		if err := c.cache.SetMany(ctx, toCache, c.cacheTTL); err != nil {
			c.log.Warn().Err(err).Str("kind", kind).Msg("cache store failed")
		}
	}

	c.log.Debug().
		Str("kind", kind).
		Int("texts", len(texts)).
		Int("cache_hits", len(texts)-len(misses)).
		Int("requested", len(misses)).
		Msg("inference batch")

	return out, nil
}
