// Package s1_text cleans raw post text into a canonical string.
package s1_text

import (
	"regexp"
	"strings"
)

var (
	tickerPattern     = regexp.MustCompile(`\$[A-Za-z]+`)
	urlPattern        = regexp.MustCompile(`http\S+|www\.\S+`)
	markupPattern     = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	entityPattern     = regexp.MustCompile(`&[a-zA-Z]+;|&#[0-9]+;`)
	markerPattern     = regexp.MustCompile(`[#@](\w+)`)
	disallowedPattern = regexp.MustCompile(`[^a-zA-Z0-9\s$.]`)
)

// maxPasses 클린 단계 반복 상한 (보통 2~3회에 수렴)
const maxPasses = 10

// Normalize cleans post text and keeps every $TICKER mention.
// Tickers are moved to the end in order of appearance.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	body := collapse(text)
	var tickers []string

	for i := 0; i < maxPasses; i++ {
		tickers = append(tickers, tickerPattern.FindAllString(body, -1)...)

		next := tickerPattern.ReplaceAllString(body, " ")
		next = urlPattern.ReplaceAllString(next, " ")
		next = markupPattern.ReplaceAllString(next, " ")
		next = entityPattern.ReplaceAllString(next, " ")
		next = markerPattern.ReplaceAllString(next, "$1")
		next = disallowedPattern.ReplaceAllString(next, " ")
		next = collapse(next)

		if next == body {
			break
		}
		body = next
	}

	if len(tickers) == 0 {
		return body
	}
	return collapse(body + " " + strings.Join(tickers, " "))
}

// ExtractTickers returns the $TICKER mentions of text in order
func ExtractTickers(text string) []string {
	return tickerPattern.FindAllString(text, -1)
}

// CombinePost joins a post title and body the way exports store them
func CombinePost(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return title + " " + body
	}
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// collapse trims and folds every whitespace run into one space
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
