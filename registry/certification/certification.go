// Package certification is an in-memory invoice certification registry.
package certification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xraph/fundflow/admin"
	"github.com/xraph/fundflow/id"
	"github.com/xraph/fundflow/types"
)

const (
	CodeCertifyUnauthorized  = 200
	CodeRevokeUnauthorized   = 201
	CodeTransferUnauthorized = 202
)

var ErrNotCertified = errors.New("fundflow: invoice not certified")

// Invoice is the certification of one invoice of one business.
type Invoice struct {
	ID          id.CertificationID `json:"id"`
	InvoiceID   string             `json:"invoice_id"`
	Business    types.Identity     `json:"business"`
	Amount      types.Amount       `json:"amount"`
	DueDate     int64              `json:"due_date"`
	Payer       types.Identity     `json:"payer"`
	CertifiedAt int64              `json:"certified_at"`
	IsCertified bool               `json:"is_certified"`
}

type key struct {
	invoiceID string
	business  types.Identity
}

// Registry stores certified invoices. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	admin     *admin.Registry
	clock     func() int64
	certified map[key]*Invoice
}

type Option func(*Registry)

// WithClock sets the logical clock stamped on certifications.
func WithClock(clock func() int64) Option {
	return func(r *Registry) { r.clock = clock }
}

// New creates a registry administered by adminID.
func New(adminID types.Identity, opts ...Option) *Registry {
	r := &Registry{
		admin:     admin.New(adminID),
		clock:     func() int64 { return time.Now().Unix() },
		certified: make(map[key]*Invoice),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Certify records the invoice as certified, replacing any earlier
// certification. Code 200 when caller is not admin.
func (r *Registry) Certify(caller types.Identity, invoiceID string, business types.Identity, amount types.Amount, dueDate int64, payer types.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admin.Authorize(caller); err != nil {
		return types.WithCode(CodeCertifyUnauthorized, err)
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	r.certified[key{invoiceID, business}] = &Invoice{
		ID:          id.NewCertificationID(),
		InvoiceID:   invoiceID,
		Business:    business,
		Amount:      amount,
		DueDate:     dueDate,
		Payer:       payer,
		CertifiedAt: r.clock(),
		IsCertified: true,
	}
	return nil
}

// Revoke deletes the certification. Code 201 when caller is not admin.
func (r *Registry) Revoke(caller types.Identity, invoiceID string, business types.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admin.Authorize(caller); err != nil {
		return types.WithCode(CodeRevokeUnauthorized, err)
	}
	delete(r.certified, key{invoiceID, business})
	return nil
}

// TransferAdmin hands over the registry. Code 202 when caller is not admin.
func (r *Registry) TransferAdmin(caller, next types.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.admin.Transfer(caller, next)
	if errors.Is(err, admin.ErrUnauthorized) {
		return types.WithCode(CodeTransferUnauthorized, err)
	}
	return err
}

func (r *Registry) Admin() types.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin.Current()
}

// IsCertified implements eligibility.InvoiceCertifier.
func (r *Registry) IsCertified(_ context.Context, invoiceID string, business types.Identity) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.certified[key{invoiceID, business}]
	return ok && inv.IsCertified, nil
}

// Get returns a copy of the certification or ErrNotCertified.
func (r *Registry) Get(invoiceID string, business types.Identity) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.certified[key{invoiceID, business}]
	if !ok {
		return nil, ErrNotCertified
	}
	cp := *inv
	return &cp, nil
}
