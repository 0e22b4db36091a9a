package balance

import (
	"context"

	"github.com/xraph/fundflow/types"
)

type Store interface {
	GetBalance(ctx context.Context, funder types.Identity) (*Balance, error)
	PutBalance(ctx context.Context, b *Balance) error
	ListBalances(ctx context.Context, opts ListOpts) ([]*Balance, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
