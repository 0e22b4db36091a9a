package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/fundflow/balance"
	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/id"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/settings"
	"github.com/xraph/fundflow/types"
)

// ==================== Balance models ====================

type balanceModel struct {
	grove.BaseModel `grove:"table:fundflow_balances"`

	Funder    string    `grove:"funder,pk"`
	Available int64     `grove:"available"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toBalanceModel(b *balance.Balance) *balanceModel {
	return &balanceModel{
		Funder:    string(b.Funder),
		Available: b.Available.Int64(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func fromBalanceModel(m *balanceModel) *balance.Balance {
	return &balance.Balance{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Funder:    types.Identity(m.Funder),
		Available: types.Amount(m.Available),
	}
}

// ==================== Funding record models ====================

type recordModel struct {
	grove.BaseModel `grove:"table:fundflow_funding_records"`

	InvoiceID     string    `grove:"invoice_id,pk"`
	Business      string    `grove:"business,pk"`
	ID            string    `grove:"id"`
	Funder        string    `grove:"funder"`
	GrossAmount   int64     `grove:"gross_amount"`
	FeeAmount     int64     `grove:"fee_amount"`
	FundedAmount  int64     `grove:"funded_amount"`
	FeePercentage int64     `grove:"fee_percentage"`
	FundingDate   int64     `grove:"funding_date"`
	DueDate       int64     `grove:"due_date"`
	IsRepaid      bool      `grove:"is_repaid"`
	RepaidAt      int64     `grove:"repaid_at"`
	State         string    `grove:"state"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toRecordModel(r *funding.Record) *recordModel {
	return &recordModel{
		InvoiceID:     r.Key.InvoiceID,
		Business:      string(r.Key.Business),
		ID:            r.ID.String(),
		Funder:        string(r.Funder),
		GrossAmount:   r.GrossAmount.Int64(),
		FeeAmount:     r.FeeAmount.Int64(),
		FundedAmount:  r.FundedAmount.Int64(),
		FeePercentage: int64(r.FeePercentage),
		FundingDate:   r.FundingDate,
		DueDate:       r.DueDate,
		IsRepaid:      r.IsRepaid,
		RepaidAt:      r.RepaidAt,
		State:         string(r.State),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromRecordModel(m *recordModel) (*funding.Record, error) {
	recordID, err := id.ParseFundingID(m.ID)
	if err != nil {
		return nil, err
	}
	return &funding.Record{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID: recordID,
		Key: funding.Key{
			InvoiceID: m.InvoiceID,
			Business:  types.Identity(m.Business),
		},
		Funder:        types.Identity(m.Funder),
		GrossAmount:   types.Amount(m.GrossAmount),
		FeeAmount:     types.Amount(m.FeeAmount),
		FundedAmount:  types.Amount(m.FundedAmount),
		FeePercentage: fee.Percentage(m.FeePercentage),
		FundingDate:   m.FundingDate,
		DueDate:       m.DueDate,
		IsRepaid:      m.IsRepaid,
		RepaidAt:      m.RepaidAt,
		State:         funding.State(m.State),
	}, nil
}

// ==================== Journal models ====================

type entryModel struct {
	grove.BaseModel `grove:"table:fundflow_journal"`

	ID           string    `grove:"id,pk"`
	Funder       string    `grove:"funder"`
	Kind         string    `grove:"kind"`
	Amount       int64     `grove:"amount"`
	BalanceAfter int64     `grove:"balance_after"`
	InvoiceID    string    `grove:"invoice_id"`
	Business     string    `grove:"business"`
	Timestamp    int64     `grove:"timestamp"`
	CreatedAt    time.Time `grove:"created_at"`
}

func toEntryModel(e *journal.Entry) *entryModel {
	return &entryModel{
		ID:           e.ID.String(),
		Funder:       string(e.Funder),
		Kind:         string(e.Kind),
		Amount:       e.Amount.Int64(),
		BalanceAfter: e.BalanceAfter.Int64(),
		InvoiceID:    e.InvoiceID,
		Business:     string(e.Business),
		Timestamp:    e.Timestamp,
		CreatedAt:    e.CreatedAt,
	}
}

func fromEntryModel(m *entryModel) (*journal.Entry, error) {
	entryID, err := id.ParseJournalID(m.ID)
	if err != nil {
		return nil, err
	}
	return &journal.Entry{
		ID:           entryID,
		Funder:       types.Identity(m.Funder),
		Kind:         journal.Kind(m.Kind),
		Amount:       types.Amount(m.Amount),
		BalanceAfter: types.Amount(m.BalanceAfter),
		InvoiceID:    m.InvoiceID,
		Business:     types.Identity(m.Business),
		Timestamp:    m.Timestamp,
		CreatedAt:    m.CreatedAt,
	}, nil
}

// ==================== Settings models ====================

// settingsRowID is the primary key of the single settings row.
const settingsRowID = 1

type settingsModel struct {
	grove.BaseModel `grove:"table:fundflow_settings"`

	ID            int       `grove:"id,pk"`
	Admin         string    `grove:"admin"`
	FeePercentage int64     `grove:"fee_percentage"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toSettingsModel(s *settings.Settings) *settingsModel {
	return &settingsModel{
		ID:            settingsRowID,
		Admin:         string(s.Admin),
		FeePercentage: int64(s.FeePercentage),
		UpdatedAt:     s.UpdatedAt,
	}
}

func fromSettingsModel(m *settingsModel) *settings.Settings {
	return &settings.Settings{
		Admin:         types.Identity(m.Admin),
		FeePercentage: fee.Percentage(m.FeePercentage),
		UpdatedAt:     m.UpdatedAt,
	}
}
