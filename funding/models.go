package funding

import (
	"errors"
	"net/url"

	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/id"
	"github.com/xraph/fundflow/types"
)

var (
	ErrRecordNotFound = errors.New("fundflow: funding record not found")
	ErrAlreadyRepaid  = errors.New("fundflow: invoice already repaid")
	ErrInvalidKey     = errors.New("fundflow: invalid funding key")
)

type State string

const (
	// StateUnfunded is never stored; it describes a key with no record.
	StateUnfunded State = "unfunded"
	StateFunded   State = "funded"
	StateRepaid   State = "repaid"
)

// Key identifies one funding relationship: one invoice of one business.
type Key struct {
	InvoiceID string         `json:"invoice_id"`
	Business  types.Identity `json:"business"`
}

// String renders the key as "<invoice>-<business>" for display. Distinct
// keys can render the same way when the invoice id contains "-"; use
// Canonical where the text must identify the key.
func (k Key) String() string {
	return k.InvoiceID + "-" + string(k.Business)
}

// Canonical renders the key as "<invoice>/<business>" with both parts
// path-escaped, so distinct keys never share a rendering.
func (k Key) Canonical() string {
	return url.PathEscape(k.InvoiceID) + "/" + url.PathEscape(string(k.Business))
}

// Validate rejects keys with a blank invoice id or business.
func (k Key) Validate() error {
	if k.InvoiceID == "" || k.Business.IsZero() {
		return ErrInvalidKey
	}
	return nil
}

// Record is the escrow created when a funder finances an invoice.
// FundingDate, DueDate and RepaidAt are logical timestamps.
type Record struct {
	types.Entity
	ID            id.FundingID   `json:"id"`
	Key           Key            `json:"key"`
	Funder        types.Identity `json:"funder"`
	GrossAmount   types.Amount   `json:"gross_amount"`
	FeeAmount     types.Amount   `json:"fee_amount"`
	FundedAmount  types.Amount   `json:"funded_amount"`
	FeePercentage fee.Percentage `json:"fee_percentage"`
	FundingDate   int64          `json:"funding_date"`
	DueDate       int64          `json:"due_date"`
	IsRepaid      bool           `json:"is_repaid"`
	RepaidAt      int64          `json:"repaid_at,omitempty"`
	State         State          `json:"state"`
}

// Settle marks the record repaid at the given logical time.
func (r *Record) Settle(at int64) {
	r.IsRepaid = true
	r.RepaidAt = at
	r.State = StateRepaid
	r.Touch()
}

// Consistent reports whether the escrowed net amount matches the gross
// amount and the fee percentage frozen on the record.
func (r *Record) Consistent() bool {
	feeAmount, net := fee.Compute(r.GrossAmount, r.FeePercentage)
	return feeAmount == r.FeeAmount && net == r.FundedAmount
}
