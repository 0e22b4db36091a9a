package store

import (
	"context"

	"github.com/xraph/fundflow/balance"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/settings"
	"github.com/xraph/fundflow/types"
)

// Store is the unified storage interface for all fundflow state. It
// satisfies balance.Store, funding.Store, journal.Store and settings.Store.
type Store interface {
	// Balance methods
	GetBalance(ctx context.Context, funder types.Identity) (*balance.Balance, error)
	PutBalance(ctx context.Context, b *balance.Balance) error
	ListBalances(ctx context.Context, opts balance.ListOpts) ([]*balance.Balance, error)

	// Funding record methods
	PutRecord(ctx context.Context, r *funding.Record) error
	GetRecord(ctx context.Context, key funding.Key) (*funding.Record, error)
	ListRecords(ctx context.Context, opts funding.ListOpts) ([]*funding.Record, error)
	MarkRecordRepaid(ctx context.Context, key funding.Key, at int64) error
	DeleteRecord(ctx context.Context, key funding.Key) error

	// Journal methods
	AppendEntry(ctx context.Context, e *journal.Entry) error
	ListEntries(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error)

	// Settings methods
	GetSettings(ctx context.Context) (*settings.Settings, error)
	PutSettings(ctx context.Context, s *settings.Settings) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ balance.Store  = Store(nil)
	_ funding.Store  = Store(nil)
	_ journal.Store  = Store(nil)
	_ settings.Store = Store(nil)
)
