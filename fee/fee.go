// Package fee holds the origination fee policy and the fee arithmetic.
//
// The fee is a whole-number percentage of the gross funding amount, deducted
// once at funding time. The computed fee is always rounded down so the
// fractional unit stays with the funder.
package fee

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/xraph/fundflow/admin"
	"github.com/xraph/fundflow/types"
)

// ErrFeeOutOfRange is returned for a percentage above MaxPercentage.
var ErrFeeOutOfRange = errors.New("fundflow: fee percentage out of range")

// Percentage is a whole-number fee percentage.
type Percentage uint32

const (
	// MaxPercentage is the largest accepted fee percentage.
	MaxPercentage Percentage = 20

	// DefaultPercentage is the fee applied by a freshly configured ledger.
	DefaultPercentage Percentage = 5
)

// Validate returns ErrFeeOutOfRange when p exceeds MaxPercentage.
func (p Percentage) Validate() error {
	if p > MaxPercentage {
		return ErrFeeOutOfRange
	}
	return nil
}

var hundred = uint256.NewInt(100)

// Compute splits gross into the fee and the net amount that is escrowed
// against the invoice: fee = floor(gross * p / 100), net = gross - fee.
// A negative gross yields a zero fee.
func Compute(gross types.Amount, p Percentage) (feeAmount, net types.Amount) {
	if gross <= 0 {
		return 0, gross
	}
	product := new(uint256.Int).Mul(uint256.NewInt(uint64(gross)), uint256.NewInt(uint64(p)))
	quotient := new(uint256.Int).Div(product, hundred)
	// quotient <= gross * MaxPercentage / 100 < gross for any valid p.
	feeAmount = types.Amount(quotient.Uint64())
	return feeAmount, gross - feeAmount
}

// Policy is the mutable fee setting, gated by an admin registry. It does
// not lock; the owning engine serializes access.
type Policy struct {
	admin   *admin.Registry
	current Percentage
}

// NewPolicy creates a policy starting at initial.
func NewPolicy(reg *admin.Registry, initial Percentage) (*Policy, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &Policy{admin: reg, current: initial}, nil
}

// Percentage returns the fee applied to future fundings.
func (p *Policy) Percentage() Percentage { return p.current }

// Set replaces the percentage. The caller must be the administrator and the
// value must not exceed MaxPercentage. Existing records keep the percentage
// frozen on them.
func (p *Policy) Set(caller types.Identity, next Percentage) error {
	if err := p.admin.Authorize(caller); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	p.current = next
	return nil
}

// Restore replaces the percentage without an authorization check.
func (p *Policy) Restore(pct Percentage) error {
	if err := pct.Validate(); err != nil {
		return err
	}
	p.current = pct
	return nil
}
