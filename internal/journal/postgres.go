package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atmx/clicker-engine/internal/model"
)

// PostgresJournal persists entries to PostgreSQL. All monetary values are
// stored as NUMERIC for exact decimal precision.
type PostgresJournal struct {
	pool *pgxpool.Pool
}

// NewPostgresJournal creates a PostgreSQL-backed journal.
func NewPostgresJournal(pool *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{pool: pool}
}

// Migrate creates the ledger table if it does not exist.
func (j *PostgresJournal) Migrate(ctx context.Context) error {
	_, err := j.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			seq           BIGSERIAL PRIMARY KEY,
			id            TEXT NOT NULL UNIQUE,
			kind          TEXT NOT NULL,
			amount        NUMERIC NOT NULL,
			details       TEXT NOT NULL,
			timestamp     TIMESTAMPTZ NOT NULL,
			instrument_id TEXT NOT NULL DEFAULT '',
			shares        NUMERIC NOT NULL DEFAULT 0,
			price         NUMERIC NOT NULL DEFAULT 0,
			game          TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("migrate ledger_entries: %w", err)
	}
	_, err = j.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_ts ON ledger_entries (timestamp)`)
	if err != nil {
		return fmt.Errorf("migrate ledger_entries index: %w", err)
	}
	return nil
}

func (j *PostgresJournal) Append(ctx context.Context, entries ...model.Transaction) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO ledger_entries (id, kind, amount, details, timestamp, instrument_id, shares, price, game)
			 VALUES ($1, $2, $3::NUMERIC, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9)
			 ON CONFLICT (id) DO NOTHING`,
			e.ID, string(e.Kind), e.Amount.String(), e.Details, e.Timestamp,
			e.InstrumentID, e.Shares.String(), e.Price.String(), e.Game,
		)
	}

	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %d entries: %w", len(entries), err)
	}
	return tx.Commit(ctx)
}

func (j *PostgresJournal) Recent(ctx context.Context, limit int) ([]model.Transaction, error) {
	query := `SELECT id, kind, amount::TEXT, details, timestamp,
	                 instrument_id, shares::TEXT, price::TEXT, game
	          FROM ledger_entries ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := j.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var e model.Transaction
		var kind, amount, shares, price string
		if err := rows.Scan(&e.ID, &kind, &amount, &e.Details, &e.Timestamp,
			&e.InstrumentID, &shares, &price, &e.Game); err != nil {
			return nil, err
		}
		e.Kind = model.TransactionKind(kind)
		e.Amount, _ = decimal.NewFromString(amount)
		e.Shares, _ = decimal.NewFromString(shares)
		e.Price, _ = decimal.NewFromString(price)
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
