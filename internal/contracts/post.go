package contracts

import "time"

// PostSource 게시글 출처
type PostSource string

const (
	SourceReddit  PostSource = "reddit"
	SourceTwitter PostSource = "twitter"
)

// ParsePostSource maps free-form source labels onto a PostSource
func ParsePostSource(s string) (PostSource, bool) {
	switch s {
	case "reddit", "Reddit", "REDDIT":
		return SourceReddit, true
	case "twitter", "Twitter", "TWITTER", "x", "X":
		return SourceTwitter, true
	default:
		return "", false
	}
}

// Post is one raw social-media post produced by a scraping collaborator
// ⭐ SSOT: S0 → S1
type Post struct {
	Line      int        `json:"line"`
	Timestamp time.Time  `json:"timestamp"`
	Source    PostSource `json:"source"`
	Subreddit string     `json:"subreddit,omitempty"`
	Ticker    string     `json:"ticker,omitempty"`
	Title     string     `json:"title,omitempty"`
	RawText   string     `json:"raw_text"`

	// 사전 점수가 있는 CSV에서 읽은 값
	PreScored *SentimentScore `json:"pre_scored,omitempty"`
	PreTopic  *TopicLabel     `json:"pre_topic,omitempty"`
}

// SentimentScore 감성 분류기 출력
type SentimentScore struct {
	Compound float64 `json:"compound"`

	// FinBERT 스타일 확률 (없으면 HasProbabilities=false)
	Positive         float64 `json:"positive,omitempty"`
	Negative         float64 `json:"negative,omitempty"`
	Neutral          float64 `json:"neutral,omitempty"`
	HasProbabilities bool    `json:"has_probabilities"`
}

// NoTopic 토픽 미할당 ID
const NoTopic = -1

// TopicLabel 토픽 분류기 출력
type TopicLabel struct {
	ID       int    `json:"id"`
	Keywords string `json:"keywords"`
}

// ScoredPost is a normalized post with its sentiment and topic
// ⭐ SSOT: S1 → S3
type ScoredPost struct {
	Date      time.Time      `json:"date"` // 캘린더 일자 (UTC 자정)
	Timestamp time.Time      `json:"timestamp"`
	Source    PostSource     `json:"source"`
	Ticker    string         `json:"ticker,omitempty"`
	Text      string         `json:"text"` // 정규화된 텍스트
	Sentiment SentimentScore `json:"sentiment"`
	Topic     TopicLabel     `json:"topic"`
}
