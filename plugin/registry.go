package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/types"
)

// DefaultTimeout bounds a single hook invocation.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onFundsAdded       []OnFundsAdded
	onInvoiceFunded    []OnInvoiceFunded
	onInvoiceRepaid    []OnInvoiceRepaid
	onFundingRejected  []OnFundingRejected
	onFeeChanged       []OnFeeChanged
	onAdminTransferred []OnAdminTransferred
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnFundsAdded); ok {
		r.onFundsAdded = append(r.onFundsAdded, v)
	}
	if v, ok := p.(OnInvoiceFunded); ok {
		r.onInvoiceFunded = append(r.onInvoiceFunded, v)
	}
	if v, ok := p.(OnInvoiceRepaid); ok {
		r.onInvoiceRepaid = append(r.onInvoiceRepaid, v)
	}
	if v, ok := p.(OnFundingRejected); ok {
		r.onFundingRejected = append(r.onFundingRejected, v)
	}
	if v, ok := p.(OnFeeChanged); ok {
		r.onFeeChanged = append(r.onFeeChanged, v)
	}
	if v, ok := p.(OnAdminTransferred); ok {
		r.onAdminTransferred = append(r.onAdminTransferred, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	iface reflect.Type
	name  string
}{
	{reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit"},
	{reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown"},
	{reflect.TypeOf((*OnFundsAdded)(nil)).Elem(), "OnFundsAdded"},
	{reflect.TypeOf((*OnInvoiceFunded)(nil)).Elem(), "OnInvoiceFunded"},
	{reflect.TypeOf((*OnInvoiceRepaid)(nil)).Elem(), "OnInvoiceRepaid"},
	{reflect.TypeOf((*OnFundingRejected)(nil)).Elem(), "OnFundingRejected"},
	{reflect.TypeOf((*OnFeeChanged)(nil)).Elem(), "OnFeeChanged"},
	{reflect.TypeOf((*OnAdminTransferred)(nil)).Elem(), "OnAdminTransferred"},
}

func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.iface) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitFundsAdded emits a deposit event.
func (r *Registry) EmitFundsAdded(ctx context.Context, funder types.Identity, amount, balance types.Amount) {
	r.mu.RLock()
	plugins := r.onFundsAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnFundsAdded", p.Name(), func() error {
			return p.OnFundsAdded(ctx, funder, amount, balance)
		})
	}
}

// EmitInvoiceFunded emits a funding event.
func (r *Registry) EmitInvoiceFunded(ctx context.Context, record *funding.Record) {
	r.mu.RLock()
	plugins := r.onInvoiceFunded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInvoiceFunded", p.Name(), func() error {
			return p.OnInvoiceFunded(ctx, record)
		})
	}
}

// EmitInvoiceRepaid emits a repayment event.
func (r *Registry) EmitInvoiceRepaid(ctx context.Context, record *funding.Record) {
	r.mu.RLock()
	plugins := r.onInvoiceRepaid
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInvoiceRepaid", p.Name(), func() error {
			return p.OnInvoiceRepaid(ctx, record)
		})
	}
}

// EmitFundingRejected emits a rejected funding attempt.
func (r *Registry) EmitFundingRejected(ctx context.Context, funder types.Identity, key funding.Key, gross types.Amount, reason error) {
	r.mu.RLock()
	plugins := r.onFundingRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnFundingRejected", p.Name(), func() error {
			return p.OnFundingRejected(ctx, funder, key, gross, reason)
		})
	}
}

// EmitFeeChanged emits a fee change.
func (r *Registry) EmitFeeChanged(ctx context.Context, by types.Identity, oldPct, newPct fee.Percentage) {
	r.mu.RLock()
	plugins := r.onFeeChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnFeeChanged", p.Name(), func() error {
			return p.OnFeeChanged(ctx, by, oldPct, newPct)
		})
	}
}

// EmitAdminTransferred emits an administrator change.
func (r *Registry) EmitAdminTransferred(ctx context.Context, oldAdmin, newAdmin types.Identity) {
	r.mu.RLock()
	plugins := r.onAdminTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnAdminTransferred", p.Name(), func() error {
			return p.OnAdminTransferred(ctx, oldAdmin, newAdmin)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout runs fn, giving up after the registry timeout or when ctx
// is done. A timed-out hook keeps running in its goroutine.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
