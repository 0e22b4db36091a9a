package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/fundflow/balance"
	"github.com/xraph/fundflow/funding"
	"github.com/xraph/fundflow/journal"
	"github.com/xraph/fundflow/settings"
	fundstore "github.com/xraph/fundflow/store"
	"github.com/xraph/fundflow/types"
)

// compile-time interface check
var _ fundstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("fundflow/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("fundflow/sqlite: migration failed: %w", err)
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
	m := new(balanceModel)
	err := s.sdb.NewSelect(m).
		Where("funder = ?", string(funder)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, balance.ErrBalanceNotFound
		}
		return nil, fmt.Errorf("fundflow/sqlite: get balance: %w", err)
	}
	return fromBalanceModel(m), nil
}

func (s *Store) PutBalance(ctx context.Context, b *balance.Balance) error {
	m := toBalanceModel(b)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(funder) DO UPDATE").
		Set("available = EXCLUDED.available").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/sqlite: put balance: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, opts balance.ListOpts) ([]*balance.Balance, error) {
	var models []balanceModel
	q := s.sdb.NewSelect(&models)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("funder ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundflow/sqlite: list balances: %w", err)
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
	_, err := s.sdb.NewInsert(m).
		OnConflict("(invoice_id, business) DO UPDATE").
		Set("id = EXCLUDED.id").
		Set("funder = EXCLUDED.funder").
		Set("gross_amount = EXCLUDED.gross_amount").
		Set("fee_amount = EXCLUDED.fee_amount").
		Set("funded_amount = EXCLUDED.funded_amount").
		Set("fee_percentage = EXCLUDED.fee_percentage").
		Set("funding_date = EXCLUDED.funding_date").
		Set("due_date = EXCLUDED.due_date").
		Set("is_repaid = EXCLUDED.is_repaid").
		Set("repaid_at = EXCLUDED.repaid_at").
		Set("state = EXCLUDED.state").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/sqlite: put record: %w", err)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, key funding.Key) (*funding.Record, error) {
	m := new(recordModel)
	err := s.sdb.NewSelect(m).
		Where("invoice_id = ?", key.InvoiceID).
		Where("business = ?", string(key.Business)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, funding.ErrRecordNotFound
		}
		return nil, fmt.Errorf("fundflow/sqlite: get record: %w", err)
	}
	return fromRecordModel(m)
}

func (s *Store) ListRecords(ctx context.Context, opts funding.ListOpts) ([]*funding.Record, error) {
	var models []recordModel
	q := s.sdb.NewSelect(&models)

	if opts.Funder != "" {
		q = q.Where("funder = ?", string(opts.Funder))
	}
	if opts.Business != "" {
		q = q.Where("business = ?", string(opts.Business))
	}
	if opts.State != "" {
		q = q.Where("state = ?", string(opts.State))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("funding_date ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundflow/sqlite: list records: %w", err)
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
	res, err := s.sdb.NewUpdate((*recordModel)(nil)).
		Set("is_repaid = ?", true).
		Set("repaid_at = ?", at).
		Set("state = ?", string(funding.StateRepaid)).
		Set("updated_at = ?", now()).
		Where("invoice_id = ?", key.InvoiceID).
		Where("business = ?", string(key.Business)).
		Where("is_repaid = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/sqlite: mark repaid: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	// Nothing updated: either the record is missing or already settled.
	if _, err := s.GetRecord(ctx, key); err != nil {
		return err
	}
	return funding.ErrAlreadyRepaid
}

func (s *Store) DeleteRecord(ctx context.Context, key funding.Key) error {
	_, err := s.sdb.NewDelete((*recordModel)(nil)).
		Where("invoice_id = ?", key.InvoiceID).
		Where("business = ?", string(key.Business)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/sqlite: delete record: %w", err)
	}
	return nil
}

// ==================== Journal Store ====================

func (s *Store) AppendEntry(ctx context.Context, e *journal.Entry) error {
	if _, err := s.sdb.NewInsert(toEntryModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("fundflow/sqlite: append entry: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	var models []entryModel
	q := s.sdb.NewSelect(&models)

	if opts.Funder != "" {
		q = q.Where("funder = ?", string(opts.Funder))
	}
	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if opts.InvoiceID != "" {
		q = q.Where("invoice_id = ?", opts.InvoiceID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("rowid ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundflow/sqlite: list entries: %w", err)
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
	m := new(settingsModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", settingsRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, settings.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("fundflow/sqlite: get settings: %w", err)
	}
	return fromSettingsModel(m), nil
}

func (s *Store) PutSettings(ctx context.Context, st *settings.Settings) error {
	_, err := s.sdb.NewInsert(toSettingsModel(st)).
		OnConflict("(id) DO UPDATE").
		Set("admin = EXCLUDED.admin").
		Set("fee_percentage = EXCLUDED.fee_percentage").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundflow/sqlite: put settings: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
