// Package funding keeps the per-invoice funding records.
package funding

import (
	"context"
	"errors"
)

// Ledger stores and settles funding records. Callers serialize access.
type Ledger struct {
	store Store
}

// NewLedger creates a funding ledger over s.
func NewLedger(s Store) *Ledger {
	return &Ledger{store: s}
}

// Create inserts the record at its key, replacing whatever was there.
func (l *Ledger) Create(ctx context.Context, r *Record) error {
	if err := r.Key.Validate(); err != nil {
		return err
	}
	if r.State == "" {
		r.State = StateFunded
	}
	return l.store.PutRecord(ctx, r)
}

// Get returns the record at key or ErrRecordNotFound.
func (l *Ledger) Get(ctx context.Context, key Key) (*Record, error) {
	return l.store.GetRecord(ctx, key)
}

// State returns the lifecycle state of key, StateUnfunded when absent.
func (l *Ledger) State(ctx context.Context, key Key) (State, error) {
	r, err := l.store.GetRecord(ctx, key)
	if errors.Is(err, ErrRecordNotFound) {
		return StateUnfunded, nil
	}
	if err != nil {
		return "", err
	}
	return r.State, nil
}

// MarkRepaid settles the record at key.
func (l *Ledger) MarkRepaid(ctx context.Context, key Key, at int64) error {
	return l.store.MarkRecordRepaid(ctx, key, at)
}

// Remove deletes the record at key. It only undoes a Create whose
// surrounding operation failed.
func (l *Ledger) Remove(ctx context.Context, key Key) error {
	return l.store.DeleteRecord(ctx, key)
}

// Restore writes r back unchanged.
func (l *Ledger) Restore(ctx context.Context, r *Record) error {
	return l.store.PutRecord(ctx, r)
}

// List returns records matching opts.
func (l *Ledger) List(ctx context.Context, opts ListOpts) ([]*Record, error) {
	return l.store.ListRecords(ctx, opts)
}
