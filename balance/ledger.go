// Package balance maintains the available balance of each funder.
package balance

import (
	"context"
	"errors"

	"github.com/xraph/fundflow/types"
)

// Ledger applies credits and debits to funder balances held in a Store.
// Callers serialize access; Ledger does not lock.
type Ledger struct {
	store Store
}

// NewLedger creates a balance ledger over s.
func NewLedger(s Store) *Ledger {
	return &Ledger{store: s}
}

// Balance returns the funder's available amount. Unknown funders have a
// balance of zero.
func (l *Ledger) Balance(ctx context.Context, funder types.Identity) (types.Amount, error) {
	b, err := l.get(ctx, funder)
	if err != nil {
		return 0, err
	}
	return b.Available, nil
}

// AddFunds credits amount to funder, creating the entry when absent.
// It returns the new balance.
func (l *Ledger) AddFunds(ctx context.Context, funder types.Identity, amount types.Amount) (types.Amount, error) {
	if funder.IsZero() {
		return 0, ErrInvalidFunder
	}
	return l.Credit(ctx, funder, amount)
}

// Credit adds amount to the funder's balance.
func (l *Ledger) Credit(ctx context.Context, funder types.Identity, amount types.Amount) (types.Amount, error) {
	if err := amount.Validate(); err != nil {
		return 0, err
	}
	b, err := l.get(ctx, funder)
	if err != nil {
		return 0, err
	}
	next, err := b.Available.Add(amount)
	if err != nil {
		return 0, err
	}
	return l.put(ctx, b, next)
}

// Debit removes amount from the funder's balance, failing with
// ErrInsufficientBalance rather than going below zero.
func (l *Ledger) Debit(ctx context.Context, funder types.Identity, amount types.Amount) (types.Amount, error) {
	if err := amount.Validate(); err != nil {
		return 0, err
	}
	b, err := l.get(ctx, funder)
	if err != nil {
		return 0, err
	}
	if amount > b.Available {
		return 0, ErrInsufficientBalance
	}
	next, err := b.Available.Sub(amount)
	if err != nil {
		return 0, err
	}
	return l.put(ctx, b, next)
}

// Set overwrites the balance. Used to undo a credit or debit when a later
// write of the same operation fails.
func (l *Ledger) Set(ctx context.Context, funder types.Identity, amount types.Amount) error {
	b, err := l.get(ctx, funder)
	if err != nil {
		return err
	}
	_, err = l.put(ctx, b, amount)
	return err
}

// List returns stored balances.
func (l *Ledger) List(ctx context.Context, opts ListOpts) ([]*Balance, error) {
	return l.store.ListBalances(ctx, opts)
}

func (l *Ledger) get(ctx context.Context, funder types.Identity) (*Balance, error) {
	b, err := l.store.GetBalance(ctx, funder)
	if errors.Is(err, ErrBalanceNotFound) {
		return &Balance{Entity: types.NewEntity(), Funder: funder}, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (l *Ledger) put(ctx context.Context, b *Balance, amount types.Amount) (types.Amount, error) {
	updated := *b
	updated.Available = amount
	updated.Touch()
	if err := l.store.PutBalance(ctx, &updated); err != nil {
		return 0, err
	}
	return amount, nil
}
