// Package s5_window slides fixed-length windows over a scaled feature matrix.
package s5_window

import (
	"fmt"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// Count returns the number of windows n rows yield: max(0, n-seqLength-horizon+1)
func Count(n, seqLength, horizon int) int {
	c := n - seqLength - horizon + 1
	if c < 0 {
		return 0
	}
	return c
}

// MakeWindows builds (history, target) pairs in chronological order.
// history = rows[i:i+seqLength], target = rows[i+seqLength:i+seqLength+horizon][targetIdx].
// Every window copies its values, so later mutation of rows does not leak into it.
// ⭐ SSOT: S5 윈도우 생성은 여기서만
func MakeWindows(rows [][]float64, seqLength, horizon, targetIdx int) ([]contracts.Window, error) {
	if seqLength <= 0 || horizon <= 0 {
		return nil, &contracts.DataValidationError{
			Stage:   contracts.StageWindow,
			Message: fmt.Sprintf("seq_length and horizon must be positive, got %d and %d", seqLength, horizon),
		}
	}
	if len(rows) > 0 && (targetIdx < 0 || targetIdx >= len(rows[0])) {
		return nil, &contracts.DataValidationError{
			Stage:   contracts.StageWindow,
			Field:   "target_index",
			Message: fmt.Sprintf("%d out of range for %d columns", targetIdx, len(rows[0])),
		}
	}

	n := Count(len(rows), seqLength, horizon)
	windows := make([]contracts.Window, 0, n)
	for i := 0; i < n; i++ {
		history := make([][]float64, seqLength)
		for k := 0; k < seqLength; k++ {
			history[k] = cloneRow(rows[i+k])
		}
		target := make([]float64, horizon)
		for k := 0; k < horizon; k++ {
			target[k] = rows[i+seqLength+k][targetIdx]
		}
		windows = append(windows, contracts.Window{Start: i, History: history, Target: target})
	}
	return windows, nil
}

// RequireWindows fails with InsufficientDataError when fewer than need windows exist
func RequireWindows(windows []contracts.Window, need int) error {
	if len(windows) < need {
		return &contracts.InsufficientDataError{
			Stage: contracts.StageWindow,
			What:  "windows",
			Have:  len(windows),
			Need:  need,
		}
	}
	return nil
}

func cloneRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}
