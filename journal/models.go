package journal

import (
	"time"

	"github.com/xraph/fundflow/id"
	"github.com/xraph/fundflow/types"
)

type Kind string

const (
	KindDeposit         Kind = "deposit"
	KindFundingDebit    Kind = "funding_debit"
	KindRepaymentCredit Kind = "repayment_credit"
)

// Entry records one balance movement. Amount is always non-negative; Kind
// gives the direction.
type Entry struct {
	ID           id.JournalID   `json:"id"`
	Funder       types.Identity `json:"funder"`
	Kind         Kind           `json:"kind"`
	Amount       types.Amount   `json:"amount"`
	BalanceAfter types.Amount   `json:"balance_after"`
	InvoiceID    string         `json:"invoice_id,omitempty"`
	Business     types.Identity `json:"business,omitempty"`
	Timestamp    int64          `json:"timestamp"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Signed returns the entry's effect on the balance.
func (e *Entry) Signed() int64 {
	if e.Kind == KindFundingDebit {
		return -int64(e.Amount)
	}
	return int64(e.Amount)
}

// Net sums the signed effect of entries.
func Net(entries []*Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Signed()
	}
	return total
}
