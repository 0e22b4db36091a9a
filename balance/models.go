package balance

import (
	"errors"

	"github.com/xraph/fundflow/types"
)

var (
	ErrBalanceNotFound     = errors.New("fundflow: balance not found")
	ErrInsufficientBalance = errors.New("fundflow: insufficient balance")
	ErrInvalidFunder       = errors.New("fundflow: invalid funder identity")
)

// Balance is the spendable amount held for one funder.
type Balance struct {
	types.Entity
	Funder    types.Identity `json:"funder"`
	Available types.Amount   `json:"available"`
}
