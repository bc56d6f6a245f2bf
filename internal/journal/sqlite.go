package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/atmx/clicker-engine/internal/model"
)

// SQLiteJournal persists entries to a local SQLite file. Decimal values are
// stored as TEXT so they round-trip exactly.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the database at path and runs
// migrations.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite journal opened", "path", path)
	return j, nil
}

func (j *SQLiteJournal) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			id            TEXT NOT NULL UNIQUE,
			kind          TEXT NOT NULL,
			amount        TEXT NOT NULL,
			details       TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			instrument_id TEXT,
			shares        TEXT,
			price         TEXT,
			game          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_ts ON ledger_entries(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_kind ON ledger_entries(kind)`,
	}
	for _, s := range stmts {
		if _, err := j.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (j *SQLiteJournal) Append(ctx context.Context, entries ...model.Transaction) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO ledger_entries
		 (id, kind, amount, details, timestamp, instrument_id, shares, price, game)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID, string(e.Kind), e.Amount.String(), e.Details, e.Timestamp.UnixNano(),
			e.InstrumentID, e.Shares.String(), e.Price.String(), e.Game,
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, amount, details, timestamp, instrument_id, shares, price, game
		 FROM ledger_entries ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var e model.Transaction
		var kind, amount, shares, price string
		var ts int64
		if err := rows.Scan(&e.ID, &kind, &amount, &e.Details, &ts,
			&e.InstrumentID, &shares, &price, &e.Game); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = model.TransactionKind(kind)
		e.Amount, _ = decimal.NewFromString(amount)
		e.Shares, _ = decimal.NewFromString(shares)
		e.Price, _ = decimal.NewFromString(price)
		e.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
