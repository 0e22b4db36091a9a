package funding

import (
	"context"

	"github.com/xraph/fundflow/types"
)

type Store interface {
	PutRecord(ctx context.Context, r *Record) error
	GetRecord(ctx context.Context, key Key) (*Record, error)
	ListRecords(ctx context.Context, opts ListOpts) ([]*Record, error)
	MarkRecordRepaid(ctx context.Context, key Key, at int64) error
	DeleteRecord(ctx context.Context, key Key) error
}

type ListOpts struct {
	Funder   types.Identity
	Business types.Identity
	State    State
	Limit    int
	Offset   int
}
