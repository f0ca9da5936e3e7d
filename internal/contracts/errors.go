package contracts

import (
	"errors"
	"fmt"
)

// DataValidationError 필수 필드가 누락되었거나 형식이 잘못된 입력
type DataValidationError struct {
	Stage   Stage
	Field   string
	Message string
}

func (e *DataValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: data validation failed on %s: %s", e.Stage.ShortName(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: data validation failed: %s", e.Stage.ShortName(), e.Message)
}

// InsufficientDataError 최소 행/윈도우 수를 충족하지 못함
type InsufficientDataError struct {
	Stage Stage
	What  string
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient %s: have %d, need %d", e.Stage.ShortName(), e.What, e.Have, e.Need)
}

// LeakageGuardError train/test 분리 위반 (프로그래밍 결함, 복구 불가)
type LeakageGuardError struct {
	Stage   Stage
	Message string
}

func (e *LeakageGuardError) Error() string {
	return fmt.Sprintf("%s: leakage guard: %s", e.Stage.ShortName(), e.Message)
}

var (
	// ErrScalerNotFitted Fit 전에 Transform/Inverse 호출
	ErrScalerNotFitted = errors.New("scaler not fitted")
	// ErrScalerAlreadyFitted Reset 없이 Fit 재호출
	ErrScalerAlreadyFitted = errors.New("scaler already fitted")
)

// IsInsufficientData reports whether err wraps an InsufficientDataError
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// IsDataValidation reports whether err wraps a DataValidationError
func IsDataValidation(err error) bool {
	var target *DataValidationError
	return errors.As(err, &target)
}

// IsLeakage reports whether err wraps a LeakageGuardError
func IsLeakage(err error) bool {
	var target *LeakageGuardError
	return errors.As(err, &target)
}
