package journal

import (
	"context"

	"github.com/xraph/fundflow/types"
)

type Store interface {
	AppendEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, opts QueryOpts) ([]*Entry, error)
}

type QueryOpts struct {
	Funder    types.Identity
	Kind      Kind
	InvoiceID string
	Limit     int
	Offset    int
}
