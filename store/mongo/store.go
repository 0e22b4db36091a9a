package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/fundflow/balance"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/settings"
	fundstore "github.com/xraph/fundflow/store"
	"github.com/xraph/fundflow/types"
)

// Collection name constants.
const (
	colBalances = "fundflow_balances"
	colRecords  = "fundflow_funding_records"
	colJournal  = "fundflow_journal"
	colSettings = "fundflow_settings"
)

// compile-time interface check
var _ fundstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all fundflow collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("fundflow/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Balance Store ====================

func (s *Store) GetBalance(ctx context.Context, funder types.Identity) (*balance.Balance, error) {
	var m balanceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": string(funder)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, balance.ErrBalanceNotFound
		}
		return nil, fmt.Errorf("fundflow/mongo: get balance: %w", err)
	}
	return fromBalanceModel(&m), nil
}

func (s *Store) PutBalance(ctx context.Context, b *balance.Balance) error {
	m := toBalanceModel(b)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Funder}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"available":  m.Available,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/mongo: put balance: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, opts balance.ListOpts) ([]*balance.Balance, error) {
	var models []balanceModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundflow/mongo: list balances: %w", err)
	}

	result := make([]*balance.Balance, len(models))
	for i := range models {
		result[i] = fromBalanceModel(&models[i])
	}
	return result, nil
}

// ==================== Funding Store ====================

func (s *Store) PutRecord(ctx context.Context, r *funding.Record) error {
	m := toRecordModel(r)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"record_id":      m.ID,
				"funder":         m.Funder,
				"gross_amount":   m.GrossAmount,
				"fee_amount":     m.FeeAmount,
				"funded_amount":  m.FundedAmount,
				"fee_percentage": m.FeePercentage,
				"funding_date":   m.FundingDate,
				"due_date":       m.DueDate,
				"is_repaid":      m.IsRepaid,
				"repaid_at":      m.RepaidAt,
				"state":          m.State,
				"created_at":     m.CreatedAt,
				"updated_at":     m.UpdatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/mongo: put record: %w", err)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, key funding.Key) (*funding.Record, error) {
	var m recordModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": toRecordKeyModel(key)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, funding.ErrRecordNotFound
		}
		return nil, fmt.Errorf("fundflow/mongo: get record: %w", err)
	}
	return fromRecordModel(&m)
}

func (s *Store) ListRecords(ctx context.Context, opts funding.ListOpts) ([]*funding.Record, error) {
	var models []recordModel

	filter := bson.M{}
	if opts.Funder != "" {
		filter["funder"] = string(opts.Funder)
	}
	if opts.Business != "" {
		filter["_id.business"] = string(opts.Business)
	}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "funding_date", Value: 1}, {Key: "record_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundflow/mongo: list records: %w", err)
	}

	result := make([]*funding.Record, len(models))
	for i := range models {
		r, err := fromRecordModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) MarkRecordRepaid(ctx context.Context, key funding.Key, at int64) error {
	res, err := s.mdb.NewUpdate((*recordModel)(nil)).
		Filter(bson.M{"_id": toRecordKeyModel(key), "is_repaid": false}).
		Set("is_repaid", true).
		Set("repaid_at", at).
		Set("state", string(funding.StateRepaid)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/mongo: mark repaid: %w", err)
	}
	if res.MatchedCount() > 0 {
		return nil
	}
	if _, err := s.GetRecord(ctx, key); err != nil {
		return err
	}
	return funding.ErrAlreadyRepaid
}

func (s *Store) DeleteRecord(ctx context.Context, key funding.Key) error {
	_, err := s.mdb.NewDelete((*recordModel)(nil)).
		Filter(bson.M{"_id": toRecordKeyModel(key)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/mongo: delete record: %w", err)
	}
	return nil
}

// ==================== Journal Store ====================

func (s *Store) AppendEntry(ctx context.Context, e *journal.Entry) error {
	if _, err := s.mdb.NewInsert(toEntryModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("fundflow/mongo: append entry: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	var models []entryModel

	filter := bson.M{}
	if opts.Funder != "" {
		filter["funder"] = string(opts.Funder)
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.InvoiceID != "" {
		filter["invoice_id"] = opts.InvoiceID
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundflow/mongo: list entries: %w", err)
	}

	result := make([]*journal.Entry, len(models))
	for i := range models {
		e, err := fromEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Settings Store ====================

func (s *Store) GetSettings(ctx context.Context) (*settings.Settings, error) {
	var m settingsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": settingsDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, settings.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("fundflow/mongo: get settings: %w", err)
	}
	return fromSettingsModel(&m), nil
}

func (s *Store) PutSettings(ctx context.Context, st *settings.Settings) error {
	_, err := s.mdb.NewUpdate((*settingsModel)(nil)).
		Filter(bson.M{"_id": settingsDocID}).
		SetUpdate(bson.M{"$set": bson.M{
			"admin":          string(st.Admin),
			"fee_percentage": int64(st.FeePercentage),
			"updated_at":     st.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/mongo: put settings: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all fundflow collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colBalances: {},
		colRecords: {
			{
				Keys:    bson.D{{Key: "record_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "funder", Value: 1}, {Key: "funding_date", Value: 1}}},
			{Keys: bson.D{{Key: "_id.business", Value: 1}}},
			{Keys: bson.D{{Key: "state", Value: 1}}},
		},
		colJournal: {
			{Keys: bson.D{{Key: "funder", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "invoice_id", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}}},
		},
		colSettings: {},
	}
}
