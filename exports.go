package fundflow

import (
	"github.com/xraph/fundflow/eligibility"
	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/types"
)

// Re-export common types for convenience so users don't have to import the
// leaf packages.

type (
	Amount     = types.Amount
	Identity   = types.Identity
	Entity     = types.Entity
	Percentage = fee.Percentage
	Record     = funding.Record
	Key        = funding.Key
	State      = funding.State
	Entry      = journal.Entry
	Result     = eligibility.Result
)

const (
	MaxFeePercentage     = fee.MaxPercentage
	DefaultFeePercentage = fee.DefaultPercentage
)

var (
	ComputeFee = fee.Compute
	NewEntity  = types.NewEntity
)
