package saver

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// CSVSaver 피처 테이블을 CSV로 저장
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

// SaveFeatures writes Date plus cols. A row without sentiment leaves that cell empty.
func (CSVSaver) SaveFeatures(rows []contracts.DailyFeatureRow, cols []string, path string) error {
	return writeStream(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(append([]string{"Date"}, cols...)); err != nil {
			return err
		}

		record := make([]string, len(cols)+1)
		for _, r := range rows {
			record[0] = contracts.DateKey(r.Date)
			for i, c := range cols {
				if c == contracts.ColSentiment && !r.HasSentiment {
					record[i+1] = ""
					continue
				}
				record[i+1] = formatFloat(r.Value(c))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}

		cw.Flush()
		return cw.Error()
	})
}

// ForecastHeader returns the forecast CSV columns for target
func ForecastHeader(target string, withReal bool) []string {
	name := strings.ReplaceAll(target, " ", "_")
	header := []string{"Date", "Predicted_" + name}
	if withReal {
		header = append(header, "Real_"+name)
	}
	return header
}

// SaveForecast writes Date, Predicted_<target> and, when any point has one, Real_<target>
func SaveForecast(points []contracts.ForecastPoint, target, path string) error {
	withReal := false
	for _, p := range points {
		if p.Real != nil {
			withReal = true
			break
		}
	}

	return writeStream(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(ForecastHeader(target, withReal)); err != nil {
			return err
		}

		for _, p := range points {
			record := []string{contracts.DateKey(p.Date), formatFloat(p.Predicted)}
			if withReal {
				actual := ""
				if p.Real != nil {
					actual = formatFloat(*p.Real)
				}
				record = append(record, actual)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}

		cw.Flush()
		return cw.Error()
	})
}

// SavePosts writes the scored posts audit trail
func SavePosts(posts []contracts.ScoredPost, path string) error {
	return writeStream(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		header := []string{"date", "timestamp", "source", "ticker", "text", "compound",
			"finbert_positive", "finbert_negative", "finbert_neutral", "topic", "topic_words"}
		if err := cw.Write(header); err != nil {
			return err
		}

		for _, p := range posts {
			pos, neg, neu := "", "", ""
			if p.Sentiment.HasProbabilities {
				pos = formatFloat(p.Sentiment.Positive)
				neg = formatFloat(p.Sentiment.Negative)
				neu = formatFloat(p.Sentiment.Neutral)
			}
			record := []string{
				contracts.DateKey(p.Date),
				p.Timestamp.Format("2006-01-02 15:04:05"),
				string(p.Source),
				p.Ticker,
				p.Text,
				formatFloat(p.Sentiment.Compound),
				pos, neg, neu,
				strconv.Itoa(p.Topic.ID),
				p.Topic.Keywords,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}

		cw.Flush()
		return cw.Error()
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
