package fundflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/fundflow/admin"
	"github.com/xraph/fundflow/balance"
	"github.com/xraph/fundflow/eligibility"
	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/id"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/plugin"
	"github.com/xraph/fundflow/settings"
	"github.com/xraph/fundflow/store"
	"github.com/xraph/fundflow/types"
)

// Engine is the funding distribution ledger. Every public operation runs
// under a single lock, so each one is atomic with respect to the others.
type Engine struct {
	mu sync.Mutex

	store    store.Store
	balances *balance.Ledger
	records  *funding.Ledger
	admin    *admin.Registry
	fees     *fee.Policy
	gate     eligibility.Gate
	plugins  *plugin.Registry
	logger   *slog.Logger
	clock    func() int64

	initialFee  fee.Percentage
	skipMigrate bool
	loaded      bool
}

// FundRequest describes a funder financing one invoice.
type FundRequest struct {
	Funder      types.Identity
	InvoiceID   string
	Business    types.Identity
	GrossAmount types.Amount
	DueDate     int64
}

// New creates a new Engine over s.
func New(s store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:      s,
		balances:   balance.NewLedger(s),
		records:    funding.NewLedger(s),
		admin:      admin.New(""),
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		clock:      func() int64 { return time.Now().Unix() },
		initialFee: fee.DefaultPercentage,
	}

	for _, opt := range opts {
		opt(e)
	}

	policy, err := fee.NewPolicy(e.admin, e.initialFee)
	if err != nil {
		return nil, fmt.Errorf("fundflow: initial fee %d: %w", e.initialFee, err)
	}
	e.fees = policy

	return e, nil
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook invocation.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithAdmin sets the initial administrator. Settings persisted in the store
// take precedence once the engine is started.
func WithAdmin(adminID types.Identity) Option {
	return func(e *Engine) {
		e.admin.Restore(adminID)
	}
}

// WithFeePercentage sets the initial fee percentage.
func WithFeePercentage(p fee.Percentage) Option {
	return func(e *Engine) {
		e.initialFee = p
	}
}

// WithEligibility makes FundInvoice consult gate before moving funds.
func WithEligibility(gate eligibility.Gate) Option {
	return func(e *Engine) {
		e.gate = gate
	}
}

// WithClock sets the source of logical timestamps for funding and repayment
// dates.
func WithClock(clock func() int64) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithoutMigrations makes Start skip store migrations. Persisted settings
// are still loaded.
func WithoutMigrations() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// Start migrates the store, loads persisted settings (or persists the
// configured ones) and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	e.mu.Lock()
	err := e.hydrate(ctx)
	adminID, pct := e.admin.Current(), e.fees.Percentage()
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("fundflow started",
		"admin", adminID,
		"fee_percentage", pct,
		"eligibility_gate", e.gate != nil,
		"plugins", e.plugins.Count(),
	)

	return nil
}

// hydrate loads persisted settings into the engine, or persists the
// configured ones when the store has none. Callers hold e.mu.
func (e *Engine) hydrate(ctx context.Context) error {
	st, err := e.store.GetSettings(ctx)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		if err := e.persistSettings(ctx); err != nil {
			return err
		}
		e.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("fundflow: load settings: %w", err)
	}

	if err := e.fees.Restore(st.FeePercentage); err != nil {
		return fmt.Errorf("fundflow: persisted fee %d: %w", st.FeePercentage, err)
	}
	e.admin.Restore(st.Admin)
	e.loaded = true
	return nil
}

// loadForRead is ensureLoaded for accessors without a context or error
// return. A failed load leaves the configured values in place.
func (e *Engine) loadForRead() {
	if err := e.ensureLoaded(context.Background()); err != nil {
		e.logger.Warn("load settings failed", "error", err)
	}
}

// ensureLoaded hydrates settings on first use for engines that were never
// started. Callers hold e.mu.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	if e.loaded {
		return nil
	}
	return e.hydrate(ctx)
}

func (e *Engine) persistSettings(ctx context.Context) error {
	return e.store.PutSettings(ctx, &settings.Settings{
		Admin:         e.admin.Current(),
		FeePercentage: e.fees.Percentage(),
		UpdatedAt:     time.Now().UTC(),
	})
}

// Stop notifies plugins and closes the store.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// Health reports whether the store is reachable.
func (e *Engine) Health(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// ──────────────────────────────────────────────────
// Balances
// ──────────────────────────────────────────────────

// AddFunds deposits amount into the funder's balance.
func (e *Engine) AddFunds(ctx context.Context, funder types.Identity, amount types.Amount) error {
	if err := amount.Validate(); err != nil {
		return types.WithCode(CodeInvalidAmount, err)
	}
	if funder.IsZero() {
		return types.WithCode(CodeInvalidAmount, ValidationError{Field: "funder", Message: "must not be empty"})
	}

	e.mu.Lock()
	after, err := e.addFundsLocked(ctx, funder, amount)
	e.mu.Unlock()
	if err != nil {
		e.logger.Warn("add funds rejected", "funder", funder, "amount", amount, "error", err)
		return err
	}

	e.logger.Debug("funds added", "funder", funder, "amount", amount, "balance", after)
	e.plugins.EmitFundsAdded(ctx, funder, amount, after)
	return nil
}

func (e *Engine) addFundsLocked(ctx context.Context, funder types.Identity, amount types.Amount) (types.Amount, error) {
	before, err := e.balances.Balance(ctx, funder)
	if err != nil {
		return 0, err
	}
	after, err := e.balances.AddFunds(ctx, funder, amount)
	if err != nil {
		return 0, err
	}

	entry := e.newEntry(funder, journal.KindDeposit, amount, after)
	if err := e.store.AppendEntry(ctx, entry); err != nil {
		return 0, e.compensate("add funds", fmt.Errorf("fundflow: append journal: %w", err),
			func() error { return e.balances.Set(ctx, funder, before) },
		)
	}
	return after, nil
}

// Balance returns the funder's available balance; zero for unknown funders.
func (e *Engine) Balance(ctx context.Context, funder types.Identity) (types.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances.Balance(ctx, funder)
}

// Balances lists stored funder balances.
func (e *Engine) Balances(ctx context.Context, opts balance.ListOpts) ([]*balance.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances.List(ctx, opts)
}

// ──────────────────────────────────────────────────
// Funding
// ──────────────────────────────────────────────────

// FundInvoice debits the gross amount from the funder and escrows the
// post-fee amount against the invoice. A key that is already funded or
// repaid is rejected with ErrConflict.
func (e *Engine) FundInvoice(ctx context.Context, req FundRequest) (*funding.Record, error) {
	key := funding.Key{InvoiceID: req.InvoiceID, Business: req.Business}

	e.mu.Lock()
	rec, err := e.fundLocked(ctx, req, key)
	e.mu.Unlock()
	if err != nil {
		e.logger.Warn("funding rejected",
			"funder", req.Funder,
			"key", key.String(),
			"gross", req.GrossAmount,
			"error", err,
		)
		e.plugins.EmitFundingRejected(ctx, req.Funder, key, req.GrossAmount, err)
		return nil, err
	}

	e.logger.Debug("invoice funded",
		"funder", rec.Funder,
		"key", key.String(),
		"gross", rec.GrossAmount,
		"fee", rec.FeeAmount,
		"net", rec.FundedAmount,
	)
	e.plugins.EmitInvoiceFunded(ctx, rec)
	return rec, nil
}

func (e *Engine) fundLocked(ctx context.Context, req FundRequest, key funding.Key) (*funding.Record, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if err := req.GrossAmount.Validate(); err != nil {
		return nil, types.WithCode(CodeInvalidAmount, err)
	}
	if req.Funder.IsZero() {
		return nil, types.WithCode(CodeInvalidAmount, ValidationError{Field: "funder", Message: "must not be empty"})
	}
	if err := key.Validate(); err != nil {
		return nil, types.WithCode(CodeInvalidAmount, ValidationError{Field: "key", Message: "invoice id and business are required"})
	}

	state, err := e.records.State(ctx, key)
	if err != nil {
		return nil, err
	}
	if state != funding.StateUnfunded {
		return nil, types.WithCode(CodeConflict, fmt.Errorf("%w: %s is %s", ErrConflict, key, state))
	}

	if e.gate != nil {
		res, err := e.gate.Check(ctx, key.InvoiceID, key.Business)
		if err != nil {
			return nil, err
		}
		if !res.Eligible {
			return nil, types.WithCode(CodeNotEligible, fmt.Errorf("%w: %s", ErrNotEligible, res.Reason))
		}
	}

	before, err := e.balances.Balance(ctx, req.Funder)
	if err != nil {
		return nil, err
	}
	if req.GrossAmount > before {
		return nil, types.WithCode(CodeInsufficientFunds, ErrInsufficientFunds)
	}

	pct := e.fees.Percentage()
	feeAmount, net := fee.Compute(req.GrossAmount, pct)

	after, err := e.balances.Debit(ctx, req.Funder, req.GrossAmount)
	if err != nil {
		return nil, err
	}

	rec := &funding.Record{
		Entity:        types.NewEntity(),
		ID:            id.NewFundingID(),
		Key:           key,
		Funder:        req.Funder,
		GrossAmount:   req.GrossAmount,
		FeeAmount:     feeAmount,
		FundedAmount:  net,
		FeePercentage: pct,
		FundingDate:   e.clock(),
		DueDate:       req.DueDate,
		State:         funding.StateFunded,
	}
	restoreBalance := func() error { return e.balances.Set(ctx, req.Funder, before) }

	if err := e.records.Create(ctx, rec); err != nil {
		return nil, e.compensate("fund invoice", fmt.Errorf("fundflow: create funding record: %w", err),
			restoreBalance,
		)
	}

	entry := e.newEntry(req.Funder, journal.KindFundingDebit, req.GrossAmount, after)
	entry.InvoiceID = key.InvoiceID
	entry.Business = key.Business
	if err := e.store.AppendEntry(ctx, entry); err != nil {
		return nil, e.compensate("fund invoice", fmt.Errorf("fundflow: append journal: %w", err),
			func() error { return e.records.Remove(ctx, key) },
			restoreBalance,
		)
	}

	return rec, nil
}

// RepayInvoice settles the invoice, crediting the escrowed net amount back
// to the original funder. A second repayment fails with ErrAlreadyRepaid and
// credits nothing.
func (e *Engine) RepayInvoice(ctx context.Context, invoiceID string, business types.Identity) (*funding.Record, error) {
	key := funding.Key{InvoiceID: invoiceID, Business: business}

	e.mu.Lock()
	rec, err := e.repayLocked(ctx, key)
	e.mu.Unlock()
	if err != nil {
		e.logger.Warn("repayment rejected", "key", key.String(), "error", err)
		return nil, err
	}

	e.logger.Debug("invoice repaid",
		"funder", rec.Funder,
		"key", key.String(),
		"credited", rec.FundedAmount,
	)
	e.plugins.EmitInvoiceRepaid(ctx, rec)
	return rec, nil
}

func (e *Engine) repayLocked(ctx context.Context, key funding.Key) (*funding.Record, error) {
	rec, err := e.records.Get(ctx, key)
	if errors.Is(err, funding.ErrRecordNotFound) {
		return nil, types.WithCode(CodeRecordNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	if rec.IsRepaid {
		return nil, types.WithCode(CodeRecordNotFound, ErrAlreadyRepaid)
	}
	original := *rec

	before, err := e.balances.Balance(ctx, rec.Funder)
	if err != nil {
		return nil, err
	}
	after, err := e.balances.Credit(ctx, rec.Funder, rec.FundedAmount)
	if err != nil {
		return nil, err
	}
	restoreBalance := func() error { return e.balances.Set(ctx, rec.Funder, before) }

	now := e.clock()
	if err := e.records.MarkRepaid(ctx, key, now); err != nil {
		return nil, e.compensate("repay invoice", fmt.Errorf("fundflow: mark repaid: %w", err),
			restoreBalance,
		)
	}

	entry := e.newEntry(rec.Funder, journal.KindRepaymentCredit, rec.FundedAmount, after)
	entry.InvoiceID = key.InvoiceID
	entry.Business = key.Business
	if err := e.store.AppendEntry(ctx, entry); err != nil {
		return nil, e.compensate("repay invoice", fmt.Errorf("fundflow: append journal: %w", err),
			func() error { return e.records.Restore(ctx, &original) },
			restoreBalance,
		)
	}

	rec.Settle(now)
	return rec, nil
}

// Record returns the funding record of an invoice.
func (e *Engine) Record(ctx context.Context, invoiceID string, business types.Identity) (*funding.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records.Get(ctx, funding.Key{InvoiceID: invoiceID, Business: business})
}

// ListRecords lists funding records.
func (e *Engine) ListRecords(ctx context.Context, opts funding.ListOpts) ([]*funding.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records.List(ctx, opts)
}

// Journal lists balance movements in the order they were applied.
func (e *Engine) Journal(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ListEntries(ctx, opts)
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// SetFeePercentage changes the fee applied to future fundings.
func (e *Engine) SetFeePercentage(ctx context.Context, caller types.Identity, p fee.Percentage) error {
	e.mu.Lock()
	if err := e.ensureLoaded(ctx); err != nil {
		e.mu.Unlock()
		return err
	}
	old := e.fees.Percentage()
	err := e.fees.Set(caller, p)
	if err == nil {
		if perr := e.persistSettings(ctx); perr != nil {
			_ = e.fees.Restore(old) //nolint:errcheck // old was already valid
			err = fmt.Errorf("fundflow: persist settings: %w", perr)
		}
	}
	e.mu.Unlock()

	switch {
	case errors.Is(err, ErrUnauthorized):
		err = types.WithCode(CodeFeeUnauthorized, err)
	case errors.Is(err, ErrFeeOutOfRange):
		err = types.WithCode(CodeFeeOutOfRange, err)
	}
	if err != nil {
		e.logger.Warn("fee change rejected", "caller", caller, "fee_percentage", p, "error", err)
		return err
	}

	e.logger.Info("fee percentage changed", "by", caller, "old", old, "new", p)
	e.plugins.EmitFeeChanged(ctx, caller, old, p)
	return nil
}

// FeePercentage returns the fee applied to future fundings.
func (e *Engine) FeePercentage() fee.Percentage {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadForRead()
	return e.fees.Percentage()
}

// TransferAdmin hands the administrator role to next.
func (e *Engine) TransferAdmin(ctx context.Context, caller, next types.Identity) error {
	e.mu.Lock()
	if err := e.ensureLoaded(ctx); err != nil {
		e.mu.Unlock()
		return err
	}
	old := e.admin.Current()
	err := e.admin.Transfer(caller, next)
	if err == nil {
		if perr := e.persistSettings(ctx); perr != nil {
			e.admin.Restore(old)
			err = fmt.Errorf("fundflow: persist settings: %w", perr)
		}
	}
	e.mu.Unlock()

	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInvalidAdmin) {
		err = types.WithCode(CodeAdminUnauthorized, err)
	}
	if err != nil {
		e.logger.Warn("admin transfer rejected", "caller", caller, "error", err)
		return err
	}

	e.logger.Info("admin transferred", "old", old, "new", next)
	e.plugins.EmitAdminTransferred(ctx, old, next)
	return nil
}

// Admin returns the current administrator.
func (e *Engine) Admin() types.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadForRead()
	return e.admin.Current()
}

// ──────────────────────────────────────────────────
// Verification
// ──────────────────────────────────────────────────

// Verify audits the stored state: no balance is negative, every unsettled
// record escrows exactly gross minus the fee frozen on it, and each
// funder's journal sums to its current balance.
func (e *Engine) Verify(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs MultiError

	balances, err := e.balances.List(ctx, balance.ListOpts{})
	if err != nil {
		return err
	}
	for _, b := range balances {
		if b.Available < 0 {
			errs.Add(fmt.Errorf("fundflow: funder %s has negative balance %d", b.Funder, b.Available))
		}
		entries, err := e.store.ListEntries(ctx, journal.QueryOpts{Funder: b.Funder})
		if err != nil {
			return err
		}
		if net := journal.Net(entries); net != int64(b.Available) {
			errs.Add(fmt.Errorf("fundflow: funder %s journal sums to %d, balance is %d", b.Funder, net, b.Available))
		}
	}

	records, err := e.records.List(ctx, funding.ListOpts{State: funding.StateFunded})
	if err != nil {
		return err
	}
	for _, r := range records {
		if !r.Consistent() {
			errs.Add(fmt.Errorf("fundflow: record %s escrows %d, expected gross %d less %d%%", r.Key, r.FundedAmount, r.GrossAmount, r.FeePercentage))
		}
	}

	return errs.ErrOrNil()
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func (e *Engine) newEntry(funder types.Identity, kind journal.Kind, amount, after types.Amount) *journal.Entry {
	return &journal.Entry{
		ID:           id.NewJournalID(),
		Funder:       funder,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: after,
		Timestamp:    e.clock(),
		CreatedAt:    time.Now().UTC(),
	}
}

// compensate undoes the writes of a failed operation in order and folds any
// undo failure into the returned error.
func (e *Engine) compensate(op string, cause error, undo ...func() error) error {
	errs := MultiError{Errors: []error{cause}}
	for _, step := range undo {
		if err := step(); err != nil {
			errs.Add(fmt.Errorf("%w: %w", ErrTransactionFailed, err))
		}
	}

	e.logger.Error("fundflow: rolled back "+op,
		"error", cause,
		"rollback_failures", len(errs.Errors)-1,
	)

	if len(errs.Errors) == 1 {
		return cause
	}
	return errs
}
