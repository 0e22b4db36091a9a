// Package memory is the in-process store. State lives in maps guarded by a
// single RWMutex and is lost when the process exits.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/xraph/fundflow/balance"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/settings"
	"github.com/xraph/fundflow/store"
	"github.com/xraph/fundflow/types"
)

var ErrClosed = errors.New("fundflow: store is closed")

type Store struct {
	mu sync.RWMutex

	// Balance storage
	balances map[types.Identity]*balance.Balance

	// Funding records, keyed by invoice and business
	records map[funding.Key]*funding.Record

	// Journal, append-only in insertion order
	entries []*journal.Entry

	settings *settings.Settings
	closed   bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		balances: make(map[types.Identity]*balance.Balance),
		records:  make(map[funding.Key]*funding.Record),
		entries:  make([]*journal.Entry, 0),
	}
}

// Balance Store implementation
func (s *Store) GetBalance(_ context.Context, funder types.Identity) (*balance.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.balances[funder]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, balance.ErrBalanceNotFound
}

func (s *Store) PutBalance(_ context.Context, b *balance.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	cp := *b
	s.balances[b.Funder] = &cp
	return nil
}

func (s *Store) ListBalances(_ context.Context, opts balance.ListOpts) ([]*balance.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*balance.Balance, 0, len(s.balances))
	for _, b := range s.balances {
		cp := *b
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Funder < result[j].Funder })

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Funding Store implementation
func (s *Store) PutRecord(_ context.Context, r *funding.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	cp := *r
	s.records[r.Key] = &cp
	return nil
}

func (s *Store) GetRecord(_ context.Context, key funding.Key) (*funding.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.records[key]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, funding.ErrRecordNotFound
}

func (s *Store) ListRecords(_ context.Context, opts funding.ListOpts) ([]*funding.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*funding.Record, 0)
	for _, r := range s.records {
		if opts.Funder != "" && r.Funder != opts.Funder {
			continue
		}
		if opts.Business != "" && r.Key.Business != opts.Business {
			continue
		}
		if opts.State != "" && r.State != opts.State {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FundingDate != result[j].FundingDate {
			return result[i].FundingDate < result[j].FundingDate
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) MarkRecordRepaid(_ context.Context, key funding.Key, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	r, ok := s.records[key]
	if !ok {
		return funding.ErrRecordNotFound
	}
	if r.IsRepaid {
		return funding.ErrAlreadyRepaid
	}
	r.Settle(at)
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, key funding.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Journal Store implementation
func (s *Store) AppendEntry(_ context.Context, e *journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	cp := *e
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *Store) ListEntries(_ context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.Entry, 0)
	for _, e := range s.entries {
		if opts.Funder != "" && e.Funder != opts.Funder {
			continue
		}
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if opts.InvoiceID != "" && e.InvoiceID != opts.InvoiceID {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Settings Store implementation
func (s *Store) GetSettings(_ context.Context) (*settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, settings.ErrSettingsNotFound
	}
	cp := *s.settings
	return &cp, nil
}

func (s *Store) PutSettings(_ context.Context, st *settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	cp := *st
	s.settings = &cp
	return nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// paginate applies offset and limit. A non-positive limit means no limit.
func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
