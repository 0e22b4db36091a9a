package types

import (
	"errors"
	"math"
	"strconv"
)

var (
	// ErrInvalidAmount is returned when an amount is negative.
	ErrInvalidAmount = errors.New("fundflow: invalid amount")

	// ErrAmountOverflow is returned when an addition would exceed the
	// representable range of Amount.
	ErrAmountOverflow = errors.New("fundflow: amount overflow")
)

// Amount is a quantity of the funding asset in its smallest unit.
// All arithmetic is integer-only. Amounts held by the ledger are never
// negative; the signed representation exists so that storage backends can
// use native BIGINT / int64 columns.
type Amount int64

// MaxAmount is the largest representable amount.
const MaxAmount = Amount(math.MaxInt64)

// Validate returns ErrInvalidAmount for negative amounts.
func (a Amount) Validate() error {
	if a < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool { return a < 0 }

// Add returns a+b. Both operands must be non-negative; the sum must fit.
func (a Amount) Add(b Amount) (Amount, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if a > MaxAmount-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// Sub returns a-b. It refuses to produce a negative result.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a < 0 || b < 0 || b > a {
		return 0, ErrInvalidAmount
	}
	return a - b, nil
}

// Int64 returns the raw value.
func (a Amount) Int64() int64 { return int64(a) }

// String returns the base-10 representation in smallest units.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// Sum adds the given amounts, failing on the first negative value or overflow.
func Sum(values ...Amount) (Amount, error) {
	var total Amount
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}
