package s0_data

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// PostOptions 게시글 CSV 로드 설정
type PostOptions struct {
	DefaultSource contracts.PostSource // source/subreddit 컬럼이 없을 때
	DefaultTicker string               // ticker 컬럼이 없을 때
	StripHTML     bool                 // HTML 본문에서 보이는 텍스트만 추출
}

// PostStats 게시글 CSV 로드 통계
type PostStats struct {
	Rows      int `json:"rows"`
	Kept      int `json:"kept"`
	BadDate   int `json:"bad_date"`
	EmptyText int `json:"empty_text"`
	Malformed int `json:"malformed"`
	PreScored int `json:"pre_scored"`
}

type postColumns struct {
	date, clock, title, text, ticker, source, subreddit int
	compound, finPos, finNeg, finNeu, topic, topicWords int
}

// LoadPosts reads a Reddit or Twitter/X post export.
// Rows with an unparseable date or no text are dropped and counted.
func LoadPosts(r io.Reader, opts PostOptions) ([]contracts.Post, PostStats, error) {
	var (
		posts []contracts.Post
		stats PostStats
		cols  postColumns
	)

	onHeader := func(h header) error {
		var ok bool
		if cols.date, ok = h.lookup("date", "created_at", "datetime", "timestamp"); !ok {
			return &contracts.DataValidationError{Stage: contracts.StageIngest, Field: "date", Message: "missing post date column"}
		}
		cols.title, _ = h.lookup("title")
		cols.text, _ = h.lookup("text", "content", "body", "selftext", "processed_text", "cleaned_text")
		if cols.title < 0 && cols.text < 0 {
			return &contracts.DataValidationError{Stage: contracts.StageIngest, Field: "text", Message: "missing post text column"}
		}
		cols.clock, _ = h.lookup("time")
		cols.ticker, _ = h.lookup("ticker", "symbol")
		cols.source, _ = h.lookup("source", "platform")
		cols.subreddit, _ = h.lookup("subreddit")
		cols.compound, _ = h.lookup("compound", "vader_compound", "vader_sentiment", "sentiment_score")
		cols.finPos, _ = h.lookup("finbert_positive")
		cols.finNeg, _ = h.lookup("finbert_negative")
		cols.finNeu, _ = h.lookup("finbert_neutral")
		cols.topic, _ = h.lookup("topic")
		cols.topicWords, _ = h.lookup("topic_words", "topic_name", "keywords")
		return nil
	}

	onRecord := func(record []string, line int) {
		stats.Rows++

		ts, ok := ParseDateTime(field(record, cols.date), field(record, cols.clock))
		if !ok {
			stats.BadDate++
			return
		}

		title := field(record, cols.title)
		text := field(record, cols.text)
		if opts.StripHTML {
			title = HTMLText(title)
			text = HTMLText(text)
		}
		if strings.TrimSpace(title) == "" && strings.TrimSpace(text) == "" {
			stats.EmptyText++
			return
		}

		post := contracts.Post{
			Line:      line,
			Timestamp: ts,
			Source:    postSource(field(record, cols.source), field(record, cols.subreddit), opts.DefaultSource),
			Subreddit: field(record, cols.subreddit),
			Ticker:    strings.ToUpper(field(record, cols.ticker)),
			Title:     title,
			RawText:   text,
		}
		if post.Ticker == "" {
			post.Ticker = opts.DefaultTicker
		}

		if score, ok := preScore(record, cols); ok {
			post.PreScored = score
			stats.PreScored++
		}
		if topic, ok := preTopic(record, cols); ok {
			post.PreTopic = topic
		}

		posts = append(posts, post)
		stats.Kept++
	}

	malformed, err := readCSV(r, onHeader, onRecord)
	stats.Malformed = malformed
	if err != nil {
		return nil, stats, fmt.Errorf("load posts: %w", err)
	}
	return posts, stats, nil
}

// LoadPostsFile opens path and calls LoadPosts
func LoadPostsFile(path string, opts PostOptions) ([]contracts.Post, PostStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, PostStats{}, fmt.Errorf("open posts: %w", err)
	}
	defer f.Close()

	return LoadPosts(f, opts)
}

func postSource(source, subreddit string, fallback contracts.PostSource) contracts.PostSource {
	if s, ok := contracts.ParsePostSource(source); ok {
		return s
	}
	if subreddit != "" {
		return contracts.SourceReddit
	}
	if fallback != "" {
		return fallback
	}
	return contracts.SourceReddit
}

func preScore(record []string, cols postColumns) (*contracts.SentimentScore, bool) {
	compound, err := strconv.ParseFloat(field(record, cols.compound), 64)
	if err != nil || !contracts.IsFinite(compound) {
		return nil, false
	}

	score := &contracts.SentimentScore{Compound: compound}
	pos, errPos := strconv.ParseFloat(field(record, cols.finPos), 64)
	neg, errNeg := strconv.ParseFloat(field(record, cols.finNeg), 64)
	neu, errNeu := strconv.ParseFloat(field(record, cols.finNeu), 64)
	if errPos == nil && errNeg == nil && errNeu == nil {
		score.Positive, score.Negative, score.Neutral = pos, neg, neu
		score.HasProbabilities = true
	}
	return score, true
}

func preTopic(record []string, cols postColumns) (*contracts.TopicLabel, bool) {
	raw := field(record, cols.topic)
	if raw == "" {
		return nil, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		// pandas가 정수 컬럼을 "3.0"으로 쓰는 경우
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return nil, false
		}
		id = int(f)
	}
	return &contracts.TopicLabel{ID: id, Keywords: field(record, cols.topicWords)}, true
}
