package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/fundflow/balance"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/id"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/settings"
)

func TestRecordsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()

	key := funding.Key{InvoiceID: "INV-1", Business: "acme"}
	rec := &funding.Record{ID: id.NewFundingID(), Key: key, FundedAmount: 950, State: funding.StateFunded}
	if err := s.PutRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}

	rec.FundedAmount = 1
	got, err := s.GetRecord(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got.FundedAmount != 950 {
		t.Errorf("stored record changed through caller pointer: %d", got.FundedAmount)
	}

	got.IsRepaid = true
	again, _ := s.GetRecord(ctx, key)
	if again.IsRepaid {
		t.Error("stored record changed through returned pointer")
	}
}

func TestMarkRecordRepaid(t *testing.T) {
	ctx := context.Background()
	s := New()
	key := funding.Key{InvoiceID: "INV-1", Business: "acme"}

	if err := s.MarkRecordRepaid(ctx, key, 5); !errors.Is(err, funding.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	if err := s.PutRecord(ctx, &funding.Record{Key: key, State: funding.StateFunded}); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRecordRepaid(ctx, key, 5); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRecordRepaid(ctx, key, 6); !errors.Is(err, funding.ErrAlreadyRepaid) {
		t.Fatalf("expected ErrAlreadyRepaid, got %v", err)
	}

	got, _ := s.GetRecord(ctx, key)
	if !got.IsRepaid || got.RepaidAt != 5 || got.State != funding.StateRepaid {
		t.Errorf("unexpected record %+v", got)
	}
}

func TestListRecordsFilters(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, r := range []*funding.Record{
		{Key: funding.Key{InvoiceID: "A", Business: "acme"}, Funder: "f1", FundingDate: 3, State: funding.StateFunded},
		{Key: funding.Key{InvoiceID: "B", Business: "acme"}, Funder: "f2", FundingDate: 1, State: funding.StateRepaid},
		{Key: funding.Key{InvoiceID: "C", Business: "globex"}, Funder: "f1", FundingDate: 2, State: funding.StateFunded},
	} {
		r.ID = id.NewFundingID()
		if err := s.PutRecord(ctx, r); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	tests := []struct {
		name  string
		opts  funding.ListOpts
		wantN []string
	}{
		{"all ordered by funding date", funding.ListOpts{}, []string{"B", "C", "A"}},
		{"by funder", funding.ListOpts{Funder: "f1"}, []string{"C", "A"}},
		{"by business", funding.ListOpts{Business: "acme"}, []string{"B", "A"}},
		{"by state", funding.ListOpts{State: funding.StateRepaid}, []string{"B"}},
		{"paged", funding.ListOpts{Limit: 1, Offset: 1}, []string{"C"}},
		{"offset past end", funding.ListOpts{Offset: 10}, nil},
		{"negative limit", funding.ListOpts{Limit: -1}, []string{"B", "C", "A"}},
		{"negative limit with offset", funding.ListOpts{Limit: -5, Offset: 2}, []string{"A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListRecords(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.wantN) {
				t.Fatalf("expected %d records, got %d", len(tt.wantN), len(got))
			}
			for i, r := range got {
				if r.Key.InvoiceID != tt.wantN[i] {
					t.Errorf("position %d: expected %s, got %s", i, tt.wantN[i], r.Key.InvoiceID)
				}
			}
		})
	}
}

func TestJournalAndSettings(t *testing.T) {
	ctx := context.Background()
	s := New()

	entries := []*journal.Entry{
		{ID: id.NewJournalID(), Funder: "f1", Kind: journal.KindDeposit, Amount: 100},
		{ID: id.NewJournalID(), Funder: "f2", Kind: journal.KindDeposit, Amount: 50},
		{ID: id.NewJournalID(), Funder: "f1", Kind: journal.KindFundingDebit, Amount: 100, InvoiceID: "INV-1"},
	}
	for _, e := range entries {
		if err := s.AppendEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.ListEntries(ctx, journal.QueryOpts{Funder: "f1"})
	if len(got) != 2 || got[0].Kind != journal.KindDeposit {
		t.Errorf("unexpected entries %+v", got)
	}
	got, _ = s.ListEntries(ctx, journal.QueryOpts{InvoiceID: "INV-1"})
	if len(got) != 1 {
		t.Errorf("expected 1 entry for invoice, got %d", len(got))
	}

	if _, err := s.GetSettings(ctx); !errors.Is(err, settings.ErrSettingsNotFound) {
		t.Fatalf("expected ErrSettingsNotFound, got %v", err)
	}
	if err := s.PutSettings(ctx, &settings.Settings{Admin: "admin", FeePercentage: 7}); err != nil {
		t.Fatal(err)
	}
	st, err := s.GetSettings(ctx)
	if err != nil || st.Admin != "admin" || st.FeePercentage != 7 {
		t.Errorf("unexpected settings %+v (%v)", st, err)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := s.PutBalance(ctx, &balance.Balance{Funder: "f1"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
