package s0_data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// header maps lower-cased column names to positions
type header map[string]int

func newHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

// lookup returns the position of the first present name
func (h header) lookup(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := h[strings.ToLower(n)]; ok {
			return i, true
		}
	}
	return -1, false
}

// field returns record[i] or "" when i is absent
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// readCSV validates the header with onHeader, then calls onRecord for every
// record with its 1-based line number. Malformed records are skipped and counted.
func readCSV(r io.Reader, onHeader func(h header) error, onRecord func(record []string, line int)) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	first, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read header: empty input")
		}
		return 0, fmt.Errorf("read header: %w", err)
	}
	if err := onHeader(newHeader(first)); err != nil {
		return 0, err
	}

	malformed := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				malformed++
				continue
			}
			return malformed, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		onRecord(record, line)
	}
	return malformed, nil
}
