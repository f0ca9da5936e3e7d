package s0_data

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// PriceStats 가격 CSV 로드 통계
type PriceStats struct {
	Rows      int `json:"rows"`
	Malformed int `json:"malformed"`
}

var priceColumns = []struct {
	name    string
	aliases []string
}{
	{"Date", []string{"date"}},
	{"Open", []string{"open"}},
	{"High", []string{"high"}},
	{"Low", []string{"low"}},
	{"Close", []string{"close"}},
	{"Adj Close", []string{"adj close", "adj_close", "adjclose"}},
	{"Volume", []string{"volume"}},
}

// LoadPrices reads a price CSV into raw rows without coercing values.
// Type coercion and row drops happen in the feature builder.
func LoadPrices(r io.Reader) ([]contracts.RawPriceRow, PriceStats, error) {
	var (
		rows  []contracts.RawPriceRow
		stats PriceStats
		pos   [7]int
		tick  = -1
		name  = -1
	)

	onHeader := func(h header) error {
		var missing []string
		for i, col := range priceColumns {
			idx, ok := h.lookup(col.aliases...)
			if !ok {
				missing = append(missing, col.name)
				continue
			}
			pos[i] = idx
		}
		if len(missing) > 0 {
			return &contracts.DataValidationError{
				Stage:   contracts.StageIngest,
				Field:   strings.Join(missing, ","),
				Message: "missing price columns",
			}
		}
		tick, _ = h.lookup("ticker", "symbol")
		name, _ = h.lookup("company_name", "company name")
		return nil
	}

	onRecord := func(record []string, line int) {
		stats.Rows++
		rows = append(rows, contracts.RawPriceRow{
			Line:        line,
			Date:        field(record, pos[0]),
			Open:        field(record, pos[1]),
			High:        field(record, pos[2]),
			Low:         field(record, pos[3]),
			Close:       field(record, pos[4]),
			AdjClose:    field(record, pos[5]),
			Volume:      field(record, pos[6]),
			Ticker:      field(record, tick),
			CompanyName: field(record, name),
		})
	}

	malformed, err := readCSV(r, onHeader, onRecord)
	stats.Malformed = malformed
	if err != nil {
		return nil, stats, fmt.Errorf("load prices: %w", err)
	}
	return rows, stats, nil
}

// LoadPricesFile opens path and calls LoadPrices
func LoadPricesFile(path string) ([]contracts.RawPriceRow, PriceStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, PriceStats{}, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()

	return LoadPrices(f)
}
