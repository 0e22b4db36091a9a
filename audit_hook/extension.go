// Package audithook bridges fundflow lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/fundflow"
	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/plugin"
	"github.com/xraph/fundflow/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnInit             = (*Extension)(nil)
	_ plugin.OnShutdown         = (*Extension)(nil)
	_ plugin.OnFundsAdded       = (*Extension)(nil)
	_ plugin.OnInvoiceFunded    = (*Extension)(nil)
	_ plugin.OnInvoiceRepaid    = (*Extension)(nil)
	_ plugin.OnFundingRejected  = (*Extension)(nil)
	_ plugin.OnFeeChanged       = (*Extension)(nil)
	_ plugin.OnAdminTransferred = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single entry in the audit trail.
type AuditEvent struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges fundflow lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit implements plugin.OnInit.
func (e *Extension) OnInit(ctx context.Context, _ any) error {
	return e.record(ctx, ActionEngineStarted, SeverityInfo, OutcomeSuccess,
		ResourceEngine, "", "", CategoryLifecycle, nil,
	)
}

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionEngineStopped, SeverityInfo, OutcomeSuccess,
		ResourceEngine, "", "", CategoryLifecycle, nil,
	)
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnFundsAdded implements plugin.OnFundsAdded.
func (e *Extension) OnFundsAdded(ctx context.Context, funder types.Identity, amount, balance types.Amount) error {
	return e.record(ctx, ActionFundsAdded, SeverityInfo, OutcomeSuccess,
		ResourceBalance, string(funder), string(funder), CategoryPayment, nil,
		"amount", int64(amount),
		"balance", int64(balance),
	)
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnInvoiceFunded implements plugin.OnInvoiceFunded.
func (e *Extension) OnInvoiceFunded(ctx context.Context, r *funding.Record) error {
	return e.record(ctx, ActionInvoiceFunded, SeverityInfo, OutcomeSuccess,
		ResourceFunding, r.ID.String(), string(r.Funder), CategoryFunding, nil,
		"invoice_id", r.Key.InvoiceID,
		"business", string(r.Key.Business),
		"gross_amount", int64(r.GrossAmount),
		"fee_amount", int64(r.FeeAmount),
		"funded_amount", int64(r.FundedAmount),
		"fee_percentage", uint32(r.FeePercentage),
		"due_date", r.DueDate,
	)
}

// OnInvoiceRepaid implements plugin.OnInvoiceRepaid.
func (e *Extension) OnInvoiceRepaid(ctx context.Context, r *funding.Record) error {
	return e.record(ctx, ActionInvoiceRepaid, SeverityInfo, OutcomeSuccess,
		ResourceFunding, r.ID.String(), string(r.Funder), CategoryPayment, nil,
		"invoice_id", r.Key.InvoiceID,
		"business", string(r.Key.Business),
		"credited", int64(r.FundedAmount),
		"repaid_at", r.RepaidAt,
	)
}

// OnFundingRejected implements plugin.OnFundingRejected.
func (e *Extension) OnFundingRejected(ctx context.Context, funder types.Identity, key funding.Key, gross types.Amount, reason error) error {
	action := ActionFundingRejected
	switch {
	case errors.Is(reason, fundflow.ErrConflict):
		action = ActionFundingConflict
	case errors.Is(reason, fundflow.ErrNotEligible):
		action = ActionFundingIneligible
	}
	return e.record(ctx, action, SeverityWarning, OutcomeFailure,
		ResourceFunding, key.Canonical(), string(funder), CategoryFunding, reason,
		"invoice_id", key.InvoiceID,
		"business", string(key.Business),
		"gross_amount", int64(gross),
		"code", fundflow.Code(reason),
	)
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnFeeChanged implements plugin.OnFeeChanged.
func (e *Extension) OnFeeChanged(ctx context.Context, by types.Identity, oldPct, newPct fee.Percentage) error {
	return e.record(ctx, ActionFeeChanged, SeverityWarning, OutcomeSuccess,
		ResourceSetting, "fee_percentage", string(by), CategoryAccess, nil,
		"old", uint32(oldPct),
		"new", uint32(newPct),
	)
}

// OnAdminTransferred implements plugin.OnAdminTransferred.
func (e *Extension) OnAdminTransferred(ctx context.Context, oldAdmin, newAdmin types.Identity) error {
	return e.record(ctx, ActionAdminTransferred, SeverityCritical, OutcomeSuccess,
		ResourceSetting, "admin", string(oldAdmin), CategoryAccess, nil,
		"old_admin", string(oldAdmin),
		"new_admin", string(newAdmin),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, actor, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         uuid.NewString(),
		Timestamp:  e.now(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Actor:      actor,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
