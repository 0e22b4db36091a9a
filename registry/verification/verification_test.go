package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/fundflow/admin"
	"github.com/xraph/fundflow/types"
)

const (
	owner    = types.Identity("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	business = types.Identity("ST2PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	outsider = types.Identity("ST3PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
)

func fixedClock() int64 { return 100 }

func TestVerifyAndRevoke(t *testing.T) {
	ctx := context.Background()
	r := New(owner, WithClock(fixedClock))

	if err := r.Verify(owner, business, "Acme Corp", "REG-12345"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	ok, err := r.IsVerified(ctx, business)
	if err != nil || !ok {
		t.Fatalf("expected verified, got %v (%v)", ok, err)
	}

	b, err := r.Get(business)
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "Acme Corp" || b.RegistrationNumber != "REG-12345" || b.VerifiedAt != 100 {
		t.Errorf("unexpected record %+v", b)
	}
	if b.ID.IsNil() {
		t.Error("expected record id")
	}

	if err := r.Revoke(owner, business); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := r.IsVerified(ctx, business); ok {
		t.Error("expected revoked business to be unverified")
	}
	if _, err := r.Get(business); !errors.Is(err, ErrNotVerified) {
		t.Errorf("expected ErrNotVerified, got %v", err)
	}
}

func TestUnauthorizedCodes(t *testing.T) {
	tests := []struct {
		name string
		call func(r *Registry) error
		code int
	}{
		{"verify", func(r *Registry) error { return r.Verify(outsider, business, "n", "r") }, CodeVerifyUnauthorized},
		{"revoke", func(r *Registry) error { return r.Revoke(outsider, business) }, CodeRevokeUnauthorized},
		{"transfer", func(r *Registry) error { return r.TransferAdmin(outsider, outsider) }, CodeTransferUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(owner)
			err := tt.call(r)
			if !errors.Is(err, admin.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
			if got := types.CodeOf(err); got != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, got)
			}
		})
	}
}

func TestTransferAdmin(t *testing.T) {
	r := New(owner)
	if err := r.TransferAdmin(owner, outsider); err != nil {
		t.Fatal(err)
	}
	if r.Admin() != outsider {
		t.Errorf("expected %s, got %s", outsider, r.Admin())
	}
	if err := r.Verify(owner, business, "n", "r"); types.CodeOf(err) != CodeVerifyUnauthorized {
		t.Errorf("former admin should be rejected, got %v", err)
	}
}
