// Package observability provides a metrics extension for fundflow that
// records lifecycle event counts and amounts through a MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/xraph/fundflow"
	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/plugin"
	"github.com/xraph/fundflow/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnFundsAdded       = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceFunded    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceRepaid    = (*MetricsExtension)(nil)
	_ plugin.OnFundingRejected  = (*MetricsExtension)(nil)
	_ plugin.OnFeeChanged       = (*MetricsExtension)(nil)
	_ plugin.OnAdminTransferred = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger-wide lifecycle metrics.
// Register it as a fundflow plugin to track funding activity.
type MetricsExtension struct {
	factory MetricFactory

	// Balance metrics
	FundsAdded    Counter
	DepositAmount Histogram

	// Funding metrics
	InvoiceFunded     Counter
	FundedGross       Histogram
	FeeCollected      Counter
	InvoiceRepaid     Counter
	RepaidAmount      Histogram
	FundingDuration   Histogram
	FundingRejected   Counter
	FundingConflict   Counter
	FundingIneligible Counter
	InsufficientFunds Counter

	// Administration metrics
	FeeChanged       Counter
	FeePercentage    Histogram
	AdminTransferred Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions or NewPrometheusFactory standalone.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		FundsAdded:    factory.Counter("fundflow.funds.added"),
		DepositAmount: factory.Histogram("fundflow.funds.deposit_amount"),

		InvoiceFunded:     factory.Counter("fundflow.invoice.funded"),
		FundedGross:       factory.Histogram("fundflow.invoice.gross_amount"),
		FeeCollected:      factory.Counter("fundflow.fee.collected"),
		InvoiceRepaid:     factory.Counter("fundflow.invoice.repaid"),
		RepaidAmount:      factory.Histogram("fundflow.invoice.repaid_amount"),
		FundingDuration:   factory.Histogram("fundflow.invoice.funding_duration"),
		FundingRejected:   factory.Counter("fundflow.funding.rejected"),
		FundingConflict:   factory.Counter("fundflow.funding.conflict"),
		FundingIneligible: factory.Counter("fundflow.funding.ineligible"),
		InsufficientFunds: factory.Counter("fundflow.funding.insufficient_funds"),

		FeeChanged:       factory.Counter("fundflow.fee.changed"),
		FeePercentage:    factory.Histogram("fundflow.fee.percentage"),
		AdminTransferred: factory.Counter("fundflow.admin.transferred"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit. It records the starting fee percentage.
func (m *MetricsExtension) OnInit(_ context.Context, engine any) error {
	if e, ok := engine.(*fundflow.Engine); ok {
		m.FeePercentage.Observe(float64(e.FeePercentage()))
	}
	return nil
}

// OnFundsAdded implements plugin.OnFundsAdded.
func (m *MetricsExtension) OnFundsAdded(_ context.Context, _ types.Identity, amount, _ types.Amount) error {
	m.FundsAdded.Inc()
	m.DepositAmount.Observe(float64(amount))
	return nil
}

// OnInvoiceFunded implements plugin.OnInvoiceFunded.
func (m *MetricsExtension) OnInvoiceFunded(_ context.Context, r *funding.Record) error {
	m.InvoiceFunded.Inc()
	m.FundedGross.Observe(float64(r.GrossAmount))
	m.FeeCollected.Add(float64(r.FeeAmount))
	return nil
}

// OnInvoiceRepaid implements plugin.OnInvoiceRepaid.
func (m *MetricsExtension) OnInvoiceRepaid(_ context.Context, r *funding.Record) error {
	m.InvoiceRepaid.Inc()
	m.RepaidAmount.Observe(float64(r.FundedAmount))
	if r.RepaidAt >= r.FundingDate {
		m.FundingDuration.Observe(float64(r.RepaidAt - r.FundingDate))
	}
	return nil
}

// OnFundingRejected implements plugin.OnFundingRejected.
func (m *MetricsExtension) OnFundingRejected(_ context.Context, _ types.Identity, _ funding.Key, _ types.Amount, reason error) error {
	m.FundingRejected.Inc()
	switch {
	case errors.Is(reason, fundflow.ErrConflict):
		m.FundingConflict.Inc()
	case errors.Is(reason, fundflow.ErrNotEligible):
		m.FundingIneligible.Inc()
	case errors.Is(reason, fundflow.ErrInsufficientFunds):
		m.InsufficientFunds.Inc()
	}
	return nil
}

// OnFeeChanged implements plugin.OnFeeChanged.
func (m *MetricsExtension) OnFeeChanged(_ context.Context, _ types.Identity, _, newPct fee.Percentage) error {
	m.FeeChanged.Inc()
	m.FeePercentage.Observe(float64(newPct))
	return nil
}

// OnAdminTransferred implements plugin.OnAdminTransferred.
func (m *MetricsExtension) OnAdminTransferred(_ context.Context, _, _ types.Identity) error {
	m.AdminTransferred.Inc()
	return nil
}
