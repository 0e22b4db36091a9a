package mongo

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

	Funder    string    `grove:"funder,pk"  bson:"_id"`
	Available int64     `grove:"available"  bson:"available"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
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
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Funder:    types.Identity(m.Funder),
		Available: types.Amount(m.Available),
	}
}

// ==================== Funding record models ====================

// recordKeyModel is the compound _id of a funding record document.
type recordKeyModel struct {
	InvoiceID string `bson:"invoice_id"`
	Business  string `bson:"business"`
}

func toRecordKeyModel(k funding.Key) recordKeyModel {
	return recordKeyModel{InvoiceID: k.InvoiceID, Business: string(k.Business)}
}

type recordModel struct {
	grove.BaseModel `grove:"table:fundflow_funding_records"`

	Key           recordKeyModel `grove:"key,pk"         bson:"_id"`
	ID            string         `grove:"id"             bson:"record_id"`
	Funder        string         `grove:"funder"         bson:"funder"`
	GrossAmount   int64          `grove:"gross_amount"   bson:"gross_amount"`
	FeeAmount     int64          `grove:"fee_amount"     bson:"fee_amount"`
	FundedAmount  int64          `grove:"funded_amount"  bson:"funded_amount"`
	FeePercentage int64          `grove:"fee_percentage" bson:"fee_percentage"`
	FundingDate   int64          `grove:"funding_date"   bson:"funding_date"`
	DueDate       int64          `grove:"due_date"       bson:"due_date"`
	IsRepaid      bool           `grove:"is_repaid"      bson:"is_repaid"`
	RepaidAt      int64          `grove:"repaid_at"      bson:"repaid_at"`
	State         string         `grove:"state"          bson:"state"`
	CreatedAt     time.Time      `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time      `grove:"updated_at"     bson:"updated_at"`
}

func toRecordModel(r *funding.Record) *recordModel {
	return &recordModel{
		Key:           toRecordKeyModel(r.Key),
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
		Entity: types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:     recordID,
		Key: funding.Key{
			InvoiceID: m.Key.InvoiceID,
			Business:  types.Identity(m.Key.Business),
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

	ID           string    `grove:"id,pk"         bson:"_id"`
	Funder       string    `grove:"funder"        bson:"funder"`
	Kind         string    `grove:"kind"          bson:"kind"`
	Amount       int64     `grove:"amount"        bson:"amount"`
	BalanceAfter int64     `grove:"balance_after" bson:"balance_after"`
	InvoiceID    string    `grove:"invoice_id"    bson:"invoice_id,omitempty"`
	Business     string    `grove:"business"      bson:"business,omitempty"`
	Timestamp    int64     `grove:"timestamp"     bson:"timestamp"`
	CreatedAt    time.Time `grove:"created_at"    bson:"created_at"`
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

// settingsDocID is the _id of the single settings document.
const settingsDocID = "settings"

type settingsModel struct {
	grove.BaseModel `grove:"table:fundflow_settings"`

	ID            string    `grove:"id,pk"          bson:"_id"`
	Admin         string    `grove:"admin"          bson:"admin"`
	FeePercentage int64     `grove:"fee_percentage" bson:"fee_percentage"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
}

func fromSettingsModel(m *settingsModel) *settings.Settings {
	return &settings.Settings{
		Admin:         types.Identity(m.Admin),
		FeePercentage: fee.Percentage(m.FeePercentage),
		UpdatedAt:     m.UpdatedAt,
	}
}
