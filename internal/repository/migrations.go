package repository

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id        BIGSERIAL PRIMARY KEY,
		name      TEXT NOT NULL CHECK (name <> ''),
		address   TEXT NOT NULL DEFAULT '',
		phone     TEXT NOT NULL DEFAULT '',
		joined_on DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id             BIGSERIAL PRIMARY KEY,
		member_id      BIGINT NOT NULL REFERENCES members (id),
		principal      NUMERIC(18,2) NOT NULL CHECK (principal > 0),
		total_payable  NUMERIC(18,2) NOT NULL,
		outstanding    NUMERIC(18,2) NOT NULL CHECK (outstanding >= 0),
		term_days      INTEGER NOT NULL,
		remaining_days INTEGER NOT NULL CHECK (remaining_days >= 0),
		status         TEXT NOT NULL,
		issued_on      DATE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_member_id ON loans (member_id)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans (status)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_issued_on ON loans (issued_on)`,
	`CREATE TABLE IF NOT EXISTS installments (
		id          BIGSERIAL PRIMARY KEY,
		paid_on     DATE NOT NULL,
		loan_id     BIGINT NOT NULL REFERENCES loans (id),
		member_id   BIGINT NOT NULL REFERENCES members (id),
		amount      NUMERIC(18,2) NOT NULL CHECK (amount > 0),
		outstanding NUMERIC(18,2) NOT NULL,
		status      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_installments_loan_id ON installments (loan_id)`,
	`CREATE INDEX IF NOT EXISTS idx_installments_member_id ON installments (member_id)`,
	`CREATE INDEX IF NOT EXISTS idx_installments_paid_on ON installments (paid_on)`,
}

// Money is kept as TEXT in SQLite so decimals round-trip exactly.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		name      TEXT NOT NULL CHECK (name <> ''),
		address   TEXT NOT NULL DEFAULT '',
		phone     TEXT NOT NULL DEFAULT '',
		joined_on TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		member_id      INTEGER NOT NULL REFERENCES members (id),
		principal      TEXT NOT NULL,
		total_payable  TEXT NOT NULL,
		outstanding    TEXT NOT NULL,
		term_days      INTEGER NOT NULL,
		remaining_days INTEGER NOT NULL CHECK (remaining_days >= 0),
		status         TEXT NOT NULL,
		issued_on      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_member_id ON loans (member_id)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans (status)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_issued_on ON loans (issued_on)`,
	`CREATE TABLE IF NOT EXISTS installments (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		paid_on     TEXT NOT NULL,
		loan_id     INTEGER NOT NULL REFERENCES loans (id),
		member_id   INTEGER NOT NULL REFERENCES members (id),
		amount      TEXT NOT NULL,
		outstanding TEXT NOT NULL,
		status      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_installments_loan_id ON installments (loan_id)`,
	`CREATE INDEX IF NOT EXISTS idx_installments_member_id ON installments (member_id)`,
	`CREATE INDEX IF NOT EXISTS idx_installments_paid_on ON installments (paid_on)`,
}

// Migrate creates the ledger tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if r.dialect == Postgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
