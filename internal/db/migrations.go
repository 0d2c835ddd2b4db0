package db

import (
	"fmt"
)

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Creditor / debtor address book
CREATE TABLE contacts (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL DEFAULT 'kreditor',
    name TEXT NOT NULL DEFAULT '',
    company TEXT NOT NULL DEFAULT '',
    email TEXT,
    phone TEXT,
    address TEXT,
    iban TEXT,
    notes TEXT,
    is_archived INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Invoices; money columns hold decimal strings
CREATE TABLE invoices (
    id TEXT PRIMARY KEY,
    ledger TEXT NOT NULL,
    company TEXT NOT NULL DEFAULT '',
    reference TEXT,
    title TEXT NOT NULL,
    contact_id TEXT REFERENCES contacts(id),
    category TEXT NOT NULL DEFAULT '',
    amount TEXT NOT NULL DEFAULT '0',
    vat TEXT NOT NULL DEFAULT '0',
    gross_amount TEXT NOT NULL DEFAULT '0',
    installment_amount TEXT NOT NULL DEFAULT '0',
    installment_interval TEXT NOT NULL DEFAULT '',
    first_installment_date TEXT,
    installment_due_date TEXT,
    issue_date TEXT,
    due_date TEXT,
    status TEXT NOT NULL DEFAULT 'offen',
    dunning_level INTEGER NOT NULL DEFAULT 0 CHECK (dunning_level BETWEEN 0 AND 4),
    priority TEXT NOT NULL DEFAULT 'normal',
    paid_at TEXT,
    paid_amount TEXT NOT NULL DEFAULT '0',
    notes TEXT,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Partial payments
CREATE TABLE payments (
    id TEXT PRIMARY KEY,
    invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    amount TEXT NOT NULL,
    date TEXT NOT NULL,
    note TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Append-only activity log per invoice
CREATE TABLE activities (
    id TEXT PRIMARY KEY,
    invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Inspection checklist templates
CREATE TABLE checklist_items (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    cadence TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Inspection runs with their item snapshots
CREATE TABLE inspection_runs (
    id TEXT PRIMARY KEY,
    cadence TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'in_bearbeitung',
    started_at TEXT NOT NULL,
    completed_at TEXT,
    notes TEXT
);

CREATE TABLE inspection_run_items (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES inspection_runs(id) ON DELETE CASCADE,
    checklist_item_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    sort_order INTEGER NOT NULL DEFAULT 0,
    is_done INTEGER NOT NULL DEFAULT 0,
    done_at TEXT,
    remark TEXT
);

-- Indexes
CREATE UNIQUE INDEX idx_invoices_reference ON invoices(reference) WHERE reference IS NOT NULL AND reference != '';
CREATE INDEX idx_invoices_ledger_status ON invoices(ledger, status);
CREATE INDEX idx_invoices_due ON invoices(due_date);
CREATE INDEX idx_payments_invoice ON payments(invoice_id);
CREATE INDEX idx_activities_invoice ON activities(invoice_id, created_at);
CREATE INDEX idx_checklist_cadence ON checklist_items(cadence, is_active);
CREATE INDEX idx_runs_cadence_status ON inspection_runs(cadence, status, completed_at);
CREATE INDEX idx_run_items_run ON inspection_run_items(run_id);
`,
	},
}

// RunMigrations applies all pending database migrations
func (db *DB) RunMigrations() error {
	// Ensure schema_version table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Apply pending migrations in a transaction
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	applied := 0
	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := tx.Exec(m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	if applied > 0 {
		db.log.Info().
			Int("from", currentVersion).
			Int("applied", applied).
			Msg("database migrated")
	}

	return nil
}

// SchemaVersion returns the highest applied migration
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
