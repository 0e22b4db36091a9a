package funding

import (
	"errors"
	"testing"
)

func TestKey(t *testing.T) {
	k := Key{InvoiceID: "INV-1", Business: "acme"}
	if k.String() != "INV-1-acme" {
		t.Errorf("unexpected key string %q", k.String())
	}
	if k.Canonical() != "INV-1/acme" {
		t.Errorf("unexpected canonical key %q", k.Canonical())
	}

	a := Key{InvoiceID: "A-B", Business: "C"}
	b := Key{InvoiceID: "A", Business: "B-C"}
	if a.String() != b.String() {
		t.Errorf("display forms should coincide, got %q and %q", a.String(), b.String())
	}
	if a.Canonical() == b.Canonical() {
		t.Errorf("canonical forms collide: %q", a.Canonical())
	}
	c := Key{InvoiceID: "A/B", Business: "C"}
	d := Key{InvoiceID: "A", Business: "B/C"}
	if c.Canonical() == d.Canonical() {
		t.Errorf("canonical forms collide: %q", c.Canonical())
	}

	tests := []struct {
		name string
		key  Key
		ok   bool
	}{
		{"complete", Key{InvoiceID: "INV-1", Business: "acme"}, true},
		{"no invoice", Key{Business: "acme"}, false},
		{"no business", Key{InvoiceID: "INV-1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestRecordConsistentAndSettle(t *testing.T) {
	r := &Record{
		GrossAmount:   1_000_000,
		FeeAmount:     50_000,
		FundedAmount:  950_000,
		FeePercentage: 5,
		State:         StateFunded,
	}
	if !r.Consistent() {
		t.Error("record should be consistent")
	}

	r.FundedAmount = 950_001
	if r.Consistent() {
		t.Error("tampered net amount should be inconsistent")
	}

	r.Settle(42)
	if !r.IsRepaid || r.RepaidAt != 42 || r.State != StateRepaid {
		t.Errorf("settle did not update record: %+v", r)
	}
}
