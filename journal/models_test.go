package journal

import "testing"

func TestNet(t *testing.T) {
	entries := []*Entry{
		{Kind: KindDeposit, Amount: 1_000_000},
		{Kind: KindFundingDebit, Amount: 1_000_000},
		{Kind: KindRepaymentCredit, Amount: 950_000},
	}
	if got := Net(entries); got != 950_000 {
		t.Errorf("expected 950000, got %d", got)
	}
	if got := Net(nil); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
