package fundflow_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/fundflow"
	"github.com/xraph/fundflow/eligibility"
	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/registry/certification"
	"github.com/xraph/fundflow/registry/risk"
	"github.com/xraph/fundflow/registry/verification"
	"github.com/xraph/fundflow/store/memory"
	"github.com/xraph/fundflow/types"
)

const (
	adminID  = types.Identity("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	business = types.Identity("ST2PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	funder   = types.Identity("ST3PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	other    = types.Identity("ST4PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	invoice  = "INV-2023-001"
)

func blockHeight() int64 { return 100 }

func newEngine(t *testing.T, opts ...fundflow.Option) *fundflow.Engine {
	t.Helper()
	opts = append([]fundflow.Option{
		fundflow.WithAdmin(adminID),
		fundflow.WithClock(blockHeight),
	}, opts...)
	e, err := fundflow.New(memory.New(), opts...)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func fund(ctx context.Context, e *fundflow.Engine, gross types.Amount) (*funding.Record, error) {
	return e.FundInvoice(ctx, fundflow.FundRequest{
		Funder:      funder,
		InvoiceID:   invoice,
		Business:    business,
		GrossAmount: gross,
		DueDate:     200,
	})
}

func TestFundAndRepayScenario(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.Equal(t, fee.Percentage(5), e.FeePercentage())
	require.NoError(t, e.AddFunds(ctx, funder, 1_000_000))

	rec, err := fund(ctx, e, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, types.Amount(950_000), rec.FundedAmount)
	require.Equal(t, types.Amount(50_000), rec.FeeAmount)
	require.Equal(t, int64(100), rec.FundingDate)
	require.Equal(t, int64(200), rec.DueDate)
	require.Equal(t, funder, rec.Funder)
	require.False(t, rec.IsRepaid)
	require.Equal(t, funding.StateFunded, rec.State)
	require.False(t, rec.ID.IsNil())

	bal, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(0), bal)

	repaid, err := e.RepayInvoice(ctx, invoice, business)
	require.NoError(t, err)
	require.True(t, repaid.IsRepaid)
	require.Equal(t, funding.StateRepaid, repaid.State)

	bal, err = e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(950_000), bal)

	stored, err := e.Record(ctx, invoice, business)
	require.NoError(t, err)
	require.True(t, stored.IsRepaid)
	require.Equal(t, int64(100), stored.RepaidAt)

	require.NoError(t, e.Verify(ctx))
}

func TestInsufficientFundsMutatesNothing(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddFunds(ctx, funder, 999_999))

	_, err := fund(ctx, e, 1_000_000)
	require.ErrorIs(t, err, fundflow.ErrInsufficientFunds)
	require.Equal(t, fundflow.CodeInsufficientFunds, fundflow.Code(err))

	bal, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(999_999), bal)

	_, err = e.Record(ctx, invoice, business)
	require.ErrorIs(t, err, fundflow.ErrRecordNotFound)
	require.True(t, fundflow.IsNotFound(err))
}

func TestRepayIsNotRepeatable(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddFunds(ctx, funder, 10_000))
	_, err := fund(ctx, e, 10_000)
	require.NoError(t, err)
	_, err = e.RepayInvoice(ctx, invoice, business)
	require.NoError(t, err)

	before, err := e.Balance(ctx, funder)
	require.NoError(t, err)

	_, err = e.RepayInvoice(ctx, invoice, business)
	require.ErrorIs(t, err, fundflow.ErrAlreadyRepaid)
	require.Equal(t, fundflow.CodeRecordNotFound, fundflow.Code(err))

	after, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRepayUnknownInvoice(t *testing.T) {
	e := newEngine(t)

	_, err := e.RepayInvoice(context.Background(), "missing", business)
	require.ErrorIs(t, err, fundflow.ErrRecordNotFound)
	require.Equal(t, fundflow.CodeRecordNotFound, fundflow.Code(err))
}

func TestConservationAndRoundTrip(t *testing.T) {
	tests := []struct {
		gross types.Amount
		pct   fee.Percentage
	}{
		{1_000_000, 5},
		{999, 5},
		{12_345, 20},
		{7, 0},
		{0, 5},
		{1, 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_at_%d", tt.gross, tt.pct), func(t *testing.T) {
			ctx := context.Background()
			e := newEngine(t, fundflow.WithFeePercentage(tt.pct))

			require.NoError(t, e.AddFunds(ctx, funder, tt.gross))
			rec, err := fund(ctx, e, tt.gross)
			require.NoError(t, err)

			wantNet := tt.gross - tt.gross*types.Amount(tt.pct)/100
			require.Equal(t, wantNet, rec.FundedAmount)

			bal, err := e.Balance(ctx, funder)
			require.NoError(t, err)
			require.Equal(t, types.Amount(0), bal)

			_, err = e.RepayInvoice(ctx, invoice, business)
			require.NoError(t, err)

			bal, err = e.Balance(ctx, funder)
			require.NoError(t, err)
			require.Equal(t, wantNet, bal)
			require.NoError(t, e.Verify(ctx))
		})
	}
}

func TestFeeIsFrozenOnRecord(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddFunds(ctx, funder, 2_000))
	rec, err := fund(ctx, e, 1_000)
	require.NoError(t, err)
	require.Equal(t, types.Amount(950), rec.FundedAmount)

	require.NoError(t, e.SetFeePercentage(ctx, adminID, 20))

	stored, err := e.Record(ctx, invoice, business)
	require.NoError(t, err)
	require.Equal(t, fee.Percentage(5), stored.FeePercentage)
	require.Equal(t, types.Amount(950), stored.FundedAmount)
	require.True(t, stored.Consistent())

	second, err := e.FundInvoice(ctx, fundflow.FundRequest{
		Funder: funder, InvoiceID: "INV-2", Business: business, GrossAmount: 1_000,
	})
	require.NoError(t, err)
	require.Equal(t, types.Amount(800), second.FundedAmount)

	_, err = e.RepayInvoice(ctx, invoice, business)
	require.NoError(t, err)
	bal, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(950), bal)
}

func TestSetFeePercentage(t *testing.T) {
	tests := []struct {
		name     string
		caller   types.Identity
		pct      fee.Percentage
		wantErr  error
		wantCode int
		wantPct  fee.Percentage
	}{
		{"upper bound accepted", adminID, 20, nil, 0, 20},
		{"zero accepted", adminID, 0, nil, 0, 0},
		{"above bound rejected", adminID, 21, fundflow.ErrFeeOutOfRange, fundflow.CodeFeeOutOfRange, 5},
		{"non-admin rejected", funder, 10, fundflow.ErrUnauthorized, fundflow.CodeFeeUnauthorized, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			err := e.SetFeePercentage(context.Background(), tt.caller, tt.pct)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, tt.wantCode, fundflow.Code(err))
			}
			require.Equal(t, tt.wantPct, e.FeePercentage())
		})
	}
}

func TestTransferAdmin(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	err := e.TransferAdmin(ctx, funder, funder)
	require.ErrorIs(t, err, fundflow.ErrUnauthorized)
	require.Equal(t, fundflow.CodeAdminUnauthorized, fundflow.Code(err))
	require.True(t, fundflow.IsAuthorization(err))
	require.Equal(t, adminID, e.Admin())

	require.NoError(t, e.TransferAdmin(ctx, adminID, other))
	require.Equal(t, other, e.Admin())

	err = e.SetFeePercentage(ctx, adminID, 10)
	require.ErrorIs(t, err, fundflow.ErrUnauthorized)
	require.NoError(t, e.SetFeePercentage(ctx, other, 10))
	require.Equal(t, fee.Percentage(10), e.FeePercentage())

	err = e.TransferAdmin(ctx, other, "")
	require.ErrorIs(t, err, fundflow.ErrInvalidAdmin)
	require.Equal(t, fundflow.CodeAdminUnauthorized, fundflow.Code(err))
	require.Equal(t, other, e.Admin())
}

func TestRefundingIsAConflict(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddFunds(ctx, funder, 3_000))
	require.NoError(t, e.AddFunds(ctx, other, 3_000))
	_, err := fund(ctx, e, 1_000)
	require.NoError(t, err)

	_, err = e.FundInvoice(ctx, fundflow.FundRequest{
		Funder: other, InvoiceID: invoice, Business: business, GrossAmount: 1_000,
	})
	require.ErrorIs(t, err, fundflow.ErrConflict)
	require.Equal(t, fundflow.CodeConflict, fundflow.Code(err))

	bal, err := e.Balance(ctx, other)
	require.NoError(t, err)
	require.Equal(t, types.Amount(3_000), bal)

	rec, err := e.Record(ctx, invoice, business)
	require.NoError(t, err)
	require.Equal(t, funder, rec.Funder)

	_, err = e.RepayInvoice(ctx, invoice, business)
	require.NoError(t, err)

	_, err = fund(ctx, e, 1_000)
	require.ErrorIs(t, err, fundflow.ErrConflict, "repaid is terminal")
}

func TestInvalidInput(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	err := e.AddFunds(ctx, funder, -5)
	require.ErrorIs(t, err, fundflow.ErrInvalidAmount)
	require.Equal(t, fundflow.CodeInvalidAmount, fundflow.Code(err))

	require.ErrorIs(t, e.AddFunds(ctx, "", 5), fundflow.ErrInvalidInput)

	_, err = fund(ctx, e, -1)
	require.ErrorIs(t, err, fundflow.ErrInvalidAmount)

	_, err = e.FundInvoice(ctx, fundflow.FundRequest{Funder: funder, Business: business, GrossAmount: 1})
	require.ErrorIs(t, err, fundflow.ErrInvalidInput)

	var verr fundflow.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "key", verr.Field)
}

func TestAddFundsOverflow(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddFunds(ctx, funder, types.MaxAmount))
	require.ErrorIs(t, e.AddFunds(ctx, funder, 1), fundflow.ErrAmountOverflow)

	bal, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.MaxAmount, bal)
}

func TestEligibilityGate(t *testing.T) {
	ctx := context.Background()

	verifier := verification.New(adminID)
	certifier := certification.New(adminID)
	assessor := risk.New(adminID)
	e := newEngine(t, fundflow.WithEligibility(eligibility.NewChecker(verifier, certifier, assessor)))

	require.NoError(t, e.AddFunds(ctx, funder, 1_000))

	_, err := fund(ctx, e, 1_000)
	require.ErrorIs(t, err, fundflow.ErrNotEligible)
	require.Equal(t, fundflow.CodeNotEligible, fundflow.Code(err))

	bal, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(1_000), bal)

	require.NoError(t, verifier.Verify(adminID, business, "Acme Corp", "REG-12345"))
	require.NoError(t, certifier.Certify(adminID, invoice, business, 1_000, 200, other))
	_, err = fund(ctx, e, 1_000)
	require.ErrorIs(t, err, fundflow.ErrNotEligible, "risk not yet assessed")

	require.NoError(t, assessor.Assess(adminID, invoice, business, 2))
	rec, err := fund(ctx, e, 1_000)
	require.NoError(t, err)
	require.Equal(t, types.Amount(950), rec.FundedAmount)
}

func TestEligibilityCheckedBeforeBalance(t *testing.T) {
	e := newEngine(t, fundflow.WithEligibility(eligibility.GateFunc(
		func(context.Context, string, types.Identity) (*eligibility.Result, error) {
			return &eligibility.Result{Reason: "blocked"}, nil
		})))

	_, err := fund(context.Background(), e, 1_000)
	require.ErrorIs(t, err, fundflow.ErrNotEligible)
}

func TestSettingsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first, err := fundflow.New(s, fundflow.WithAdmin(adminID))
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	require.NoError(t, first.SetFeePercentage(ctx, adminID, 7))
	require.NoError(t, first.TransferAdmin(ctx, adminID, other))

	second, err := fundflow.New(s, fundflow.WithAdmin(adminID), fundflow.WithFeePercentage(3))
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx))
	require.Equal(t, other, second.Admin())
	require.Equal(t, fee.Percentage(7), second.FeePercentage())
}

func TestUnstartedEngineUsesPersistedSettings(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first, err := fundflow.New(s, fundflow.WithAdmin(adminID))
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	require.NoError(t, first.SetFeePercentage(ctx, adminID, 8))
	require.NoError(t, first.TransferAdmin(ctx, adminID, other))

	second, err := fundflow.New(s, fundflow.WithAdmin(adminID))
	require.NoError(t, err)

	err = second.SetFeePercentage(ctx, adminID, 20)
	require.ErrorIs(t, err, fundflow.ErrUnauthorized)
	require.Equal(t, other, second.Admin())
	require.Equal(t, fee.Percentage(8), second.FeePercentage())

	st, err := s.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, other, st.Admin)
	require.Equal(t, fee.Percentage(8), st.FeePercentage)
}

func TestStartWithoutMigrationsLoadsSettings(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first, err := fundflow.New(s, fundflow.WithAdmin(adminID))
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	require.NoError(t, first.TransferAdmin(ctx, adminID, other))

	second, err := fundflow.New(s, fundflow.WithAdmin(adminID), fundflow.WithoutMigrations())
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx))
	require.Equal(t, other, second.Admin())
}

func TestNewRejectsOutOfRangeFee(t *testing.T) {
	_, err := fundflow.New(memory.New(), fundflow.WithFeePercentage(21))
	require.ErrorIs(t, err, fundflow.ErrFeeOutOfRange)
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddFunds(ctx, funder, 1_000_000))
	_, err := fund(ctx, e, 1_000_000)
	require.NoError(t, err)
	_, err = e.RepayInvoice(ctx, invoice, business)
	require.NoError(t, err)

	entries, err := e.Journal(ctx, journal.QueryOpts{Funder: funder})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, journal.KindDeposit, entries[0].Kind)
	require.Equal(t, types.Amount(1_000_000), entries[0].BalanceAfter)
	require.Equal(t, journal.KindFundingDebit, entries[1].Kind)
	require.Equal(t, types.Amount(0), entries[1].BalanceAfter)
	require.Equal(t, invoice, entries[1].InvoiceID)
	require.Equal(t, journal.KindRepaymentCredit, entries[2].Kind)
	require.Equal(t, types.Amount(950_000), entries[2].Amount)
	require.Equal(t, int64(950_000), journal.Net(entries))
}

func TestListRecords(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddFunds(ctx, funder, 3_000))
	for i := range 3 {
		_, err := e.FundInvoice(ctx, fundflow.FundRequest{
			Funder: funder, InvoiceID: fmt.Sprintf("INV-%d", i), Business: business, GrossAmount: 1_000,
		})
		require.NoError(t, err)
	}
	_, err := e.RepayInvoice(ctx, "INV-1", business)
	require.NoError(t, err)

	funded, err := e.ListRecords(ctx, funding.ListOpts{State: funding.StateFunded})
	require.NoError(t, err)
	require.Len(t, funded, 2)

	all, err := e.ListRecords(ctx, funding.ListOpts{Funder: funder})
	require.NoError(t, err)
	require.Len(t, all, 3)

	unbounded, err := e.ListRecords(ctx, funding.ListOpts{Limit: -1})
	require.NoError(t, err)
	require.Len(t, unbounded, 3)

	entries, err := e.Journal(ctx, journal.QueryOpts{Limit: -1})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestConcurrentFundingNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddFunds(ctx, funder, 10_000))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.FundInvoice(ctx, fundflow.FundRequest{
				Funder: funder, InvoiceID: fmt.Sprintf("INV-%d", i), Business: business, GrossAmount: 1_000,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, fundflow.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 10, succeeded)
	bal, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(0), bal)
	require.NoError(t, e.Verify(ctx))
}

func TestVerifyDetectsInconsistentRecord(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e, err := fundflow.New(s, fundflow.WithAdmin(adminID))
	require.NoError(t, err)

	require.NoError(t, s.PutRecord(ctx, &funding.Record{
		Key:           funding.Key{InvoiceID: "bad", Business: business},
		GrossAmount:   1_000,
		FeeAmount:     50,
		FundedAmount:  1_000,
		FeePercentage: 5,
		State:         funding.StateFunded,
	}))

	require.Error(t, e.Verify(ctx))
}

// failingStore fails journal appends after the first n succeed.
type failingStore struct {
	*memory.Store
	allowed int
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) AppendEntry(ctx context.Context, entry *journal.Entry) error {
	if s.allowed == 0 {
		return errDiskFull
	}
	s.allowed--
	return s.Store.AppendEntry(ctx, entry)
}

func TestFailedWriteIsRolledBack(t *testing.T) {
	ctx := context.Background()
	s := &failingStore{Store: memory.New(), allowed: 1}
	e, err := fundflow.New(s, fundflow.WithAdmin(adminID))
	require.NoError(t, err)

	require.NoError(t, e.AddFunds(ctx, funder, 1_000))

	_, err = fund(ctx, e, 1_000)
	require.ErrorIs(t, err, errDiskFull)

	bal, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(1_000), bal)

	_, err = e.Record(ctx, invoice, business)
	require.ErrorIs(t, err, fundflow.ErrRecordNotFound)

	require.ErrorIs(t, e.AddFunds(ctx, funder, 5), errDiskFull)
	bal, err = e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(1_000), bal)
}

func TestRepayRollback(t *testing.T) {
	ctx := context.Background()
	s := &failingStore{Store: memory.New(), allowed: 2}
	e, err := fundflow.New(s, fundflow.WithAdmin(adminID))
	require.NoError(t, err)

	require.NoError(t, e.AddFunds(ctx, funder, 1_000))
	_, err = fund(ctx, e, 1_000)
	require.NoError(t, err)

	_, err = e.RepayInvoice(ctx, invoice, business)
	require.ErrorIs(t, err, errDiskFull)

	rec, err := e.Record(ctx, invoice, business)
	require.NoError(t, err)
	require.False(t, rec.IsRepaid)
	require.Equal(t, funding.StateFunded, rec.State)

	bal, err := e.Balance(ctx, funder)
	require.NoError(t, err)
	require.Equal(t, types.Amount(0), bal)
}

type eventPlugin struct {
	mu     sync.Mutex
	events []string
}

func (p *eventPlugin) Name() string { return "events" }

func (p *eventPlugin) record(ev string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *eventPlugin) OnFundsAdded(_ context.Context, _ types.Identity, amount, _ types.Amount) error {
	p.record(fmt.Sprintf("deposit:%d", amount))
	return nil
}

func (p *eventPlugin) OnInvoiceFunded(_ context.Context, r *funding.Record) error {
	p.record(fmt.Sprintf("funded:%d", r.FundedAmount))
	return nil
}

func (p *eventPlugin) OnInvoiceRepaid(_ context.Context, r *funding.Record) error {
	p.record("repaid:" + r.Key.String())
	return nil
}

func (p *eventPlugin) OnFundingRejected(_ context.Context, _ types.Identity, _ funding.Key, _ types.Amount, reason error) error {
	p.record(fmt.Sprintf("rejected:%d", fundflow.Code(reason)))
	return nil
}

func (p *eventPlugin) OnFeeChanged(_ context.Context, _ types.Identity, oldPct, newPct fee.Percentage) error {
	p.record(fmt.Sprintf("fee:%d->%d", oldPct, newPct))
	return nil
}

func TestPluginEvents(t *testing.T) {
	ctx := context.Background()
	p := &eventPlugin{}
	e := newEngine(t, fundflow.WithPlugin(p))

	require.NoError(t, e.AddFunds(ctx, funder, 1_000))
	_, err := fund(ctx, e, 2_000)
	require.Error(t, err)
	_, err = fund(ctx, e, 1_000)
	require.NoError(t, err)
	_, err = e.RepayInvoice(ctx, invoice, business)
	require.NoError(t, err)
	require.NoError(t, e.SetFeePercentage(ctx, adminID, 10))

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Equal(t, []string{
		"deposit:1000",
		"rejected:400",
		"funded:950",
		"repaid:" + invoice + "-" + string(business),
		"fee:5->10",
	}, p.events)
}
