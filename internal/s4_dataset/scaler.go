package s4_dataset

import (
	"fmt"
	"slices"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// Partition 스케일러 입력 데이터의 출처
type Partition string

const (
	PartitionTrain Partition = "train"
	PartitionTest  Partition = "test"
)

// MinMaxScaler maps each column onto [0,1] using the min/max seen at Fit.
// Fit is allowed once on train data; Transform and Inverse require a fitted scaler.
type MinMaxScaler struct {
	columns []string
	min     []float64
	scale   []float64 // max - min, 1 for degenerate columns
	fitted  bool
}

// NewMinMaxScaler creates an unfitted scaler over the named columns
func NewMinMaxScaler(columns ...string) *MinMaxScaler {
	return &MinMaxScaler{columns: slices.Clone(columns)}
}

// Columns returns the scaled column names
func (s *MinMaxScaler) Columns() []string {
	return slices.Clone(s.columns)
}

// Fitted reports whether Fit has been called since the last Reset
func (s *MinMaxScaler) Fitted() bool {
	return s.fitted
}

// Fit learns per-column min/max from data. Fitting on test data is a leakage defect.
func (s *MinMaxScaler) Fit(part Partition, data [][]float64) error {
	if part != PartitionTrain {
		return &contracts.LeakageGuardError{
			Stage:   contracts.StageDataset,
			Message: fmt.Sprintf("scaler over %v fit on %s partition", s.columns, part),
		}
	}
	if s.fitted {
		return contracts.ErrScalerAlreadyFitted
	}
	if len(data) == 0 {
		return &contracts.InsufficientDataError{Stage: contracts.StageDataset, What: "rows to fit scaler", Have: 0, Need: 1}
	}

	n := len(s.columns)
	lo := make([]float64, n)
	hi := make([]float64, n)
	for i, row := range data {
		if len(row) != n {
			return &contracts.DataValidationError{
				Stage:   contracts.StageDataset,
				Message: fmt.Sprintf("row %d has %d values, scaler has %d columns", i, len(row), n),
			}
		}
		for j, v := range row {
			if !contracts.IsFinite(v) {
				return &contracts.DataValidationError{
					Stage: contracts.StageDataset, Field: s.columns[j], Message: fmt.Sprintf("non-finite value at row %d", i),
				}
			}
			if i == 0 || v < lo[j] {
				lo[j] = v
			}
			if i == 0 || v > hi[j] {
				hi[j] = v
			}
		}
	}

	s.min = lo
	s.scale = make([]float64, n)
	for j := range lo {
		s.scale[j] = hi[j] - lo[j]
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}
	s.fitted = true
	return nil
}

// Reset forgets the fitted range so Fit may be called again
func (s *MinMaxScaler) Reset() {
	s.min = nil
	s.scale = nil
	s.fitted = false
}

// Min returns the fitted per-column minimum
func (s *MinMaxScaler) Min() ([]float64, error) {
	if !s.fitted {
		return nil, contracts.ErrScalerNotFitted
	}
	out := make([]float64, len(s.min))
	copy(out, s.min)
	return out, nil
}

// Max returns the fitted per-column maximum (min for degenerate columns plus 1)
func (s *MinMaxScaler) Max() ([]float64, error) {
	if !s.fitted {
		return nil, contracts.ErrScalerNotFitted
	}
	out := make([]float64, len(s.min))
	for j := range out {
		out[j] = s.min[j] + s.scale[j]
	}
	return out, nil
}

// Transform scales data into a new matrix
func (s *MinMaxScaler) Transform(data [][]float64) ([][]float64, error) {
	return s.apply(data, s.TransformColumn)
}

// Inverse maps scaled data back to original units
func (s *MinMaxScaler) Inverse(data [][]float64) ([][]float64, error) {
	return s.apply(data, s.InverseColumn)
}

// TransformColumn scales one value of column j
func (s *MinMaxScaler) TransformColumn(j int, v float64) (float64, error) {
	if err := s.check(j); err != nil {
		return 0, err
	}
	return (v - s.min[j]) / s.scale[j], nil
}

// InverseColumn maps one scaled value of column j back to original units
func (s *MinMaxScaler) InverseColumn(j int, v float64) (float64, error) {
	if err := s.check(j); err != nil {
		return 0, err
	}
	return v*s.scale[j] + s.min[j], nil
}

func (s *MinMaxScaler) check(j int) error {
	if !s.fitted {
		return contracts.ErrScalerNotFitted
	}
	if j < 0 || j >= len(s.columns) {
		return fmt.Errorf("column index %d out of range [0,%d)", j, len(s.columns))
	}
	return nil
}

func (s *MinMaxScaler) apply(data [][]float64, fn func(int, float64) (float64, error)) ([][]float64, error) {
	if !s.fitted {
		return nil, contracts.ErrScalerNotFitted
	}
	out := make([][]float64, len(data))
	for i, row := range data {
		if len(row) != len(s.columns) {
			return nil, &contracts.DataValidationError{
				Stage:   contracts.StageDataset,
				Message: fmt.Sprintf("row %d has %d values, scaler has %d columns", i, len(row), len(s.columns)),
			}
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			x, err := fn(j, v)
			if err != nil {
				return nil, err
			}
			scaled[j] = x
		}
		out[i] = scaled
	}
	return out, nil
}
