package types

import (
	"errors"
	"fmt"
)

// CodedError attaches a numeric result code to an error. Codes follow the
// registry conventions (1xx verification, 2xx certification, 3xx risk,
// 4xx funding) so callers that speak the numeric protocol can map errors
// back without string matching.
type CodedError struct {
	Code int
	Err  error
}

func (e *CodedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error so errors.Is keeps matching sentinels.
func (e *CodedError) Unwrap() error { return e.Err }

// WithCode wraps err with code. A nil err stays nil.
func WithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	var ce *CodedError
	if errors.As(err, &ce) && ce.Code == code {
		return err
	}
	return &CodedError{Code: code, Err: err}
}

// CodeOf returns the outermost code attached to err, or 0.
func CodeOf(err error) int {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}
