package fundflow

import (
	"errors"
	"fmt"

	"github.com/xraph/fundflow/admin"
	"github.com/xraph/fundflow/balance"
	"github.com/xraph/fundflow/eligibility"
	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/registry/risk"
	"github.com/xraph/fundflow/settings"
	"github.com/xraph/fundflow/types"
)

// Result codes carried by engine errors. Use Code to read them.
const (
	CodeInsufficientFunds = 400
	CodeRecordNotFound    = 401
	CodeFeeUnauthorized   = 402
	CodeFeeOutOfRange     = 403
	CodeAdminUnauthorized = 404
	CodeConflict          = 405
	CodeNotEligible       = 406
	CodeInvalidAmount     = 407
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("fundflow: invalid input")
	ErrConflict     = errors.New("fundflow: invoice already funded")

	// Authorization errors
	ErrUnauthorized = admin.ErrUnauthorized
	ErrInvalidAdmin = admin.ErrInvalidAdmin

	// Amount errors
	ErrInvalidAmount       = types.ErrInvalidAmount
	ErrAmountOverflow      = types.ErrAmountOverflow
	ErrInsufficientFunds   = errors.New("fundflow: insufficient funds")
	ErrInsufficientBalance = balance.ErrInsufficientBalance

	// Range errors
	ErrFeeOutOfRange   = fee.ErrFeeOutOfRange
	ErrScoreOutOfRange = risk.ErrScoreOutOfRange

	// Funding record errors
	ErrRecordNotFound = funding.ErrRecordNotFound
	ErrAlreadyRepaid  = funding.ErrAlreadyRepaid
	ErrNotEligible    = eligibility.ErrNotEligible

	// Store errors
	ErrSettingsNotFound  = settings.ErrSettingsNotFound
	ErrStoreNotReady     = errors.New("fundflow: store not ready")
	ErrTransactionFailed = errors.New("fundflow: transaction failed")
	ErrMigrationFailed   = errors.New("fundflow: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("fundflow: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "fundflow: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("fundflow: %d errors occurred: %v", len(e.Errors), e.Errors[0])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns nil when nothing was collected.
func (e MultiError) ErrOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// Code returns the numeric result code attached to err, or 0.
func Code(err error) int {
	return types.CodeOf(err)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrSettingsNotFound)
}

// IsAuthorization returns true if the caller lacked the administrator role.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
