// Package admin tracks the single administrator identity that gates
// privileged operations such as fee changes and administrator handover.
package admin

import (
	"errors"

	"github.com/xraph/fundflow/types"
)

var (
	// ErrUnauthorized is returned when the caller is not the current administrator.
	ErrUnauthorized = errors.New("fundflow: unauthorized")

	// ErrInvalidAdmin is returned when a blank identity is offered as administrator.
	ErrInvalidAdmin = errors.New("fundflow: invalid administrator identity")
)

// Registry holds the current administrator. It performs no locking of its
// own; owners serialize access.
type Registry struct {
	current types.Identity
}

// New creates a registry with the given initial administrator.
func New(initial types.Identity) *Registry {
	return &Registry{current: initial}
}

// Current returns the administrator identity.
func (r *Registry) Current() types.Identity { return r.current }

// IsAdmin reports whether caller is the current administrator. A blank
// caller is never the administrator.
func (r *Registry) IsAdmin(caller types.Identity) bool {
	return !caller.IsZero() && caller == r.current
}

// Authorize returns ErrUnauthorized unless caller is the administrator.
func (r *Registry) Authorize(caller types.Identity) error {
	if !r.IsAdmin(caller) {
		return ErrUnauthorized
	}
	return nil
}

// Transfer hands the administrator role to next. Only the current
// administrator may do so.
func (r *Registry) Transfer(caller, next types.Identity) error {
	if err := r.Authorize(caller); err != nil {
		return err
	}
	if next.IsZero() {
		return ErrInvalidAdmin
	}
	r.current = next
	return nil
}

// Restore replaces the administrator without an authorization check. It is
// used when hydrating from persisted settings.
func (r *Registry) Restore(current types.Identity) {
	r.current = current
}
