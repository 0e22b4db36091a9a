// Package eligibility decides whether an invoice may be funded by combining
// the business verification, invoice certification and risk assessment
// registries.
package eligibility

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/fundflow/types"
)

// ErrNotEligible is returned when an invoice fails the eligibility gate.
var ErrNotEligible = errors.New("fundflow: invoice not eligible for funding")

// DefaultMaxRiskScore is the highest risk score accepted by default.
const DefaultMaxRiskScore = 5

// BusinessVerifier reports whether a business has been verified.
type BusinessVerifier interface {
	IsVerified(ctx context.Context, business types.Identity) (bool, error)
}

// InvoiceCertifier reports whether an invoice has been certified.
type InvoiceCertifier interface {
	IsCertified(ctx context.Context, invoiceID string, business types.Identity) (bool, error)
}

// RiskAssessor returns the risk score of an invoice, 0 when unassessed.
type RiskAssessor interface {
	RiskScore(ctx context.Context, invoiceID string, business types.Identity) (int, error)
}

// Gate decides whether an invoice may be funded.
type Gate interface {
	Check(ctx context.Context, invoiceID string, business types.Identity) (*Result, error)
}

// GateFunc adapts a plain function to Gate.
type GateFunc func(ctx context.Context, invoiceID string, business types.Identity) (*Result, error)

// Check implements Gate.
func (f GateFunc) Check(ctx context.Context, invoiceID string, business types.Identity) (*Result, error) {
	return f(ctx, invoiceID, business)
}

// Checker is the Gate backed by the three registries. An invoice is
// eligible when its business is verified, it is certified, and its risk
// score lies in [1, MaxRiskScore].
type Checker struct {
	verifier  BusinessVerifier
	certifier InvoiceCertifier
	assessor  RiskAssessor
	maxRisk   int
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithMaxRiskScore lowers or raises the accepted risk ceiling.
func WithMaxRiskScore(maxScore int) CheckerOption {
	return func(c *Checker) { c.maxRisk = maxScore }
}

// NewChecker builds a registry-backed gate.
func NewChecker(v BusinessVerifier, c InvoiceCertifier, r RiskAssessor, opts ...CheckerOption) *Checker {
	ch := &Checker{
		verifier:  v,
		certifier: c,
		assessor:  r,
		maxRisk:   DefaultMaxRiskScore,
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// Check implements Gate. Every registry is consulted so the Result is
// complete even when an earlier gate already failed.
func (c *Checker) Check(ctx context.Context, invoiceID string, business types.Identity) (*Result, error) {
	verified, err := c.verifier.IsVerified(ctx, business)
	if err != nil {
		return nil, fmt.Errorf("eligibility: verification lookup: %w", err)
	}
	certified, err := c.certifier.IsCertified(ctx, invoiceID, business)
	if err != nil {
		return nil, fmt.Errorf("eligibility: certification lookup: %w", err)
	}
	score, err := c.assessor.RiskScore(ctx, invoiceID, business)
	if err != nil {
		return nil, fmt.Errorf("eligibility: risk lookup: %w", err)
	}

	res := &Result{Verified: verified, Certified: certified, RiskScore: score}
	switch {
	case !verified:
		res.Reason = "business not verified"
	case !certified:
		res.Reason = "invoice not certified"
	case score == 0:
		res.Reason = "risk not assessed"
	case score < 1 || score > c.maxRisk:
		res.Reason = fmt.Sprintf("risk score %d outside [1, %d]", score, c.maxRisk)
	default:
		res.Eligible = true
	}
	return res, nil
}
