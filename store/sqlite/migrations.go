package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the fundflow store (SQLite).
var Migrations = migrate.NewGroup("fundflow")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_fundflow_balances",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundflow_balances (
    funder     TEXT PRIMARY KEY,
    available  INTEGER NOT NULL DEFAULT 0 CHECK (available >= 0),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundflow_balances`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_fundflow_funding_records",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundflow_funding_records (
    invoice_id     TEXT NOT NULL,
    business       TEXT NOT NULL,
    id             TEXT NOT NULL UNIQUE,
    funder         TEXT NOT NULL,
    gross_amount   INTEGER NOT NULL,
    fee_amount     INTEGER NOT NULL,
    funded_amount  INTEGER NOT NULL,
    fee_percentage INTEGER NOT NULL,
    funding_date   INTEGER NOT NULL,
    due_date       INTEGER NOT NULL DEFAULT 0,
    is_repaid      INTEGER NOT NULL DEFAULT 0,
    repaid_at      INTEGER NOT NULL DEFAULT 0,
    state          TEXT NOT NULL DEFAULT 'funded',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (invoice_id, business)
);

CREATE INDEX IF NOT EXISTS idx_fundflow_records_funder ON fundflow_funding_records (funder);
CREATE INDEX IF NOT EXISTS idx_fundflow_records_business ON fundflow_funding_records (business);
CREATE INDEX IF NOT EXISTS idx_fundflow_records_state ON fundflow_funding_records (state);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundflow_funding_records`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_fundflow_journal",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundflow_journal (
    id            TEXT PRIMARY KEY,
    funder        TEXT NOT NULL,
    kind          TEXT NOT NULL,
    amount        INTEGER NOT NULL,
    balance_after INTEGER NOT NULL,
    invoice_id    TEXT NOT NULL DEFAULT '',
    business      TEXT NOT NULL DEFAULT '',
    timestamp     INTEGER NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_fundflow_journal_funder ON fundflow_journal (funder);
CREATE INDEX IF NOT EXISTS idx_fundflow_journal_invoice ON fundflow_journal (invoice_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundflow_journal`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_fundflow_settings",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundflow_settings (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    admin          TEXT NOT NULL,
    fee_percentage INTEGER NOT NULL CHECK (fee_percentage BETWEEN 0 AND 20),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundflow_settings`)
				return err
			},
		},
	)
}
