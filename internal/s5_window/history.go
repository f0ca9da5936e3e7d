package s5_window

import "fmt"

// History is a fixed-capacity ordered buffer of feature rows.
// Push appends a row and evicts the oldest once full. Rows are copied in and out.
type History struct {
	rows [][]float64
	head int // 가장 오래된 행 위치
	size int
	cols int
}

// NewHistory creates an empty buffer holding at most capacity rows of cols values
func NewHistory(capacity, cols int) *History {
	return &History{rows: make([][]float64, capacity), cols: cols}
}

// HistoryFrom fills a buffer with the last capacity rows of rows
func HistoryFrom(rows [][]float64, capacity int) (*History, error) {
	if len(rows) < capacity {
		return nil, fmt.Errorf("history needs %d rows, have %d", capacity, len(rows))
	}
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	h := NewHistory(capacity, cols)
	for _, r := range rows[len(rows)-capacity:] {
		if err := h.Push(r); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Cap returns the buffer capacity
func (h *History) Cap() int {
	return len(h.rows)
}

// Len returns the number of rows held
func (h *History) Len() int {
	return h.size
}

// Full reports whether Len == Cap
func (h *History) Full() bool {
	return h.size == len(h.rows)
}

// Push appends a copy of row, evicting the oldest row when full
func (h *History) Push(row []float64) error {
	if len(row) != h.cols {
		return fmt.Errorf("row has %d values, history has %d columns", len(row), h.cols)
	}
	if len(h.rows) == 0 {
		return nil
	}
	cp := make([]float64, len(row))
	copy(cp, row)

	if h.size < len(h.rows) {
		h.rows[(h.head+h.size)%len(h.rows)] = cp
		h.size++
		return nil
	}
	h.rows[h.head] = cp
	h.head = (h.head + 1) % len(h.rows)
	return nil
}

// Latest returns a copy of the newest row, or nil when empty
func (h *History) Latest() []float64 {
	if h.size == 0 {
		return nil
	}
	r := h.rows[(h.head+h.size-1)%len(h.rows)]
	out := make([]float64, len(r))
	copy(out, r)
	return out
}

// Rows returns a copy of the rows, oldest first
func (h *History) Rows() [][]float64 {
	out := make([][]float64, h.size)
	for i := 0; i < h.size; i++ {
		r := h.rows[(h.head+i)%len(h.rows)]
		cp := make([]float64, len(r))
		copy(cp, r)
		out[i] = cp
	}
	return out
}
