// Package plugin provides an extensible plugin system for fundflow.
// Plugins hook into ledger lifecycle events; they observe state changes but
// cannot veto or alter them.
package plugin

import (
	"context"

	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *fundflow.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnFundsAdded is called after a deposit is credited.
type OnFundsAdded interface {
	Plugin
	OnFundsAdded(ctx context.Context, funder types.Identity, amount, balance types.Amount) error
}

// ──────────────────────────────────────────────────
// Funding lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceFunded is called after a funding record is created.
type OnInvoiceFunded interface {
	Plugin
	OnInvoiceFunded(ctx context.Context, record *funding.Record) error
}

// OnInvoiceRepaid is called after a funding record is settled.
type OnInvoiceRepaid interface {
	Plugin
	OnInvoiceRepaid(ctx context.Context, record *funding.Record) error
}

// OnFundingRejected is called when a funding attempt fails validation.
type OnFundingRejected interface {
	Plugin
	OnFundingRejected(ctx context.Context, funder types.Identity, key funding.Key, gross types.Amount, reason error) error
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnFeeChanged is called after the fee percentage changes.
type OnFeeChanged interface {
	Plugin
	OnFeeChanged(ctx context.Context, by types.Identity, oldPct, newPct fee.Percentage) error
}

// OnAdminTransferred is called after the administrator changes.
type OnAdminTransferred interface {
	Plugin
	OnAdminTransferred(ctx context.Context, oldAdmin, newAdmin types.Identity) error
}
