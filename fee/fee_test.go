package fee

import (
	"errors"
	"testing"

	"github.com/xraph/fundflow/admin"
	"github.com/xraph/fundflow/types"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		gross   types.Amount
		pct     Percentage
		wantFee types.Amount
		wantNet types.Amount
	}{
		{"reference 5%", 1_000_000, 5, 50_000, 950_000},
		{"zero percent", 1_000_000, 0, 0, 1_000_000},
		{"max percent", 1_000, 20, 200, 800},
		{"floors fractional fee", 99, 5, 4, 95},
		{"tiny amount rounds to zero fee", 19, 5, 0, 19},
		{"zero gross", 0, 5, 0, 0},
		{"no overflow near max", types.MaxAmount, 20, types.MaxAmount / 5, types.MaxAmount - types.MaxAmount/5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFee, gotNet := Compute(tt.gross, tt.pct)
			if gotFee != tt.wantFee {
				t.Errorf("fee: expected %d, got %d", tt.wantFee, gotFee)
			}
			if gotNet != tt.wantNet {
				t.Errorf("net: expected %d, got %d", tt.wantNet, gotNet)
			}
			if gotFee+gotNet != tt.gross {
				t.Errorf("fee + net must equal gross: %d + %d != %d", gotFee, gotNet, tt.gross)
			}
		})
	}
}

func TestPolicySet(t *testing.T) {
	tests := []struct {
		name    string
		caller  types.Identity
		pct     Percentage
		wantErr error
		want    Percentage
	}{
		{"admin sets upper bound", "admin", 20, nil, 20},
		{"admin sets zero", "admin", 0, nil, 0},
		{"above range", "admin", 21, ErrFeeOutOfRange, 5},
		{"non-admin", "funder", 10, admin.ErrUnauthorized, 5},
		{"non-admin and out of range", "funder", 99, admin.ErrUnauthorized, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(admin.New("admin"), DefaultPercentage)
			if err != nil {
				t.Fatal(err)
			}
			if err := p.Set(tt.caller, tt.pct); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if p.Percentage() != tt.want {
				t.Errorf("expected %d, got %d", tt.want, p.Percentage())
			}
		})
	}
}

func TestNewPolicyRejectsOutOfRange(t *testing.T) {
	if _, err := NewPolicy(admin.New("admin"), 21); !errors.Is(err, ErrFeeOutOfRange) {
		t.Errorf("expected ErrFeeOutOfRange, got %v", err)
	}
}
