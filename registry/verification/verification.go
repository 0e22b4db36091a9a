// Package verification is an in-memory business verification registry.
// An administrator verifies or revokes businesses; anyone may query.
package verification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xraph/fundflow/admin"
	"github.com/xraph/fundflow/id"
	"github.com/xraph/fundflow/types"
)

// Result codes returned for rejected administrative calls.
const (
	CodeVerifyUnauthorized   = 100
	CodeRevokeUnauthorized   = 101
	CodeTransferUnauthorized = 102
)

var ErrNotVerified = errors.New("fundflow: business not verified")

// Business is the verification record of one business.
type Business struct {
	ID                 id.VerificationID `json:"id"`
	Business           types.Identity    `json:"business"`
	Name               string            `json:"name"`
	RegistrationNumber string            `json:"registration_number"`
	VerifiedAt         int64             `json:"verified_at"`
	IsVerified         bool              `json:"is_verified"`
}

// Registry stores verified businesses. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	admin    *admin.Registry
	clock    func() int64
	verified map[types.Identity]*Business
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the logical clock stamped on verifications.
func WithClock(clock func() int64) Option {
	return func(r *Registry) { r.clock = clock }
}

// New creates a registry administered by adminID.
func New(adminID types.Identity, opts ...Option) *Registry {
	r := &Registry{
		admin:    admin.New(adminID),
		clock:    func() int64 { return time.Now().Unix() },
		verified: make(map[types.Identity]*Business),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Verify records business as verified. Code 100 when caller is not admin.
func (r *Registry) Verify(caller, business types.Identity, name, registrationNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admin.Authorize(caller); err != nil {
		return types.WithCode(CodeVerifyUnauthorized, err)
	}
	r.verified[business] = &Business{
		ID:                 id.NewVerificationID(),
		Business:           business,
		Name:               name,
		RegistrationNumber: registrationNumber,
		VerifiedAt:         r.clock(),
		IsVerified:         true,
	}
	return nil
}

// Revoke deletes the verification. Code 101 when caller is not admin.
func (r *Registry) Revoke(caller, business types.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admin.Authorize(caller); err != nil {
		return types.WithCode(CodeRevokeUnauthorized, err)
	}
	delete(r.verified, business)
	return nil
}

// TransferAdmin hands over the registry. Code 102 when caller is not admin.
func (r *Registry) TransferAdmin(caller, next types.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.admin.Transfer(caller, next)
	if errors.Is(err, admin.ErrUnauthorized) {
		return types.WithCode(CodeTransferUnauthorized, err)
	}
	return err
}

// Admin returns the current administrator.
func (r *Registry) Admin() types.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin.Current()
}

// IsVerified implements eligibility.BusinessVerifier.
func (r *Registry) IsVerified(_ context.Context, business types.Identity) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.verified[business]
	return ok && b.IsVerified, nil
}

// Get returns a copy of the verification record or ErrNotVerified.
func (r *Registry) Get(business types.Identity) (*Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.verified[business]
	if !ok {
		return nil, ErrNotVerified
	}
	cp := *b
	return &cp, nil
}
