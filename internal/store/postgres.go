package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"finsim/internal/db"
	"finsim/internal/sim"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool, migrationFS, "migrations/postgres"); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sessions (id, name, auto_advance, total_days, net_worth, created_at, updated_at, record)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				auto_advance = EXCLUDED.auto_advance,
				total_days = EXCLUDED.total_days,
				net_worth = EXCLUDED.net_worth,
				updated_at = EXCLUDED.updated_at,
				record = EXCLUDED.record
		`, rec.ID, rec.Name, rec.AutoAdvance, int64(rec.Snapshot.Clock.TotalDays), rec.Snapshot.Ledger.NetWorth,
			rec.CreatedAt, rec.UpdatedAt, body); err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}

		batch := &pgx.Batch{}
		for _, t := range rec.Snapshot.Transactions {
			batch.Queue(`
				INSERT INTO transactions (session_id, tx_id, day, amount, category, description)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (session_id, tx_id) DO NOTHING
			`, rec.ID, t.ID, int64(t.Day), t.Amount, string(t.Category), t.Description)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("archive transactions: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Load(ctx context.Context, id string) (Record, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, "SELECT record FROM sessions WHERE id = $1", id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, auto_advance, total_days, net_worth, updated_at
		FROM sessions
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			sum  Summary
			days int64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.AutoAdvance, &days, &sum.NetWorth, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.TotalDays = uint32(days)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		_, err = tx.Exec(ctx, "DELETE FROM transactions WHERE session_id = $1", id)
		return err
	})
}

func (s *PostgresStore) History(ctx context.Context, sessionID string, limit int) ([]sim.Transaction, error) {
	q := `
		SELECT tx_id, day, amount, category, description
		FROM transactions
		WHERE session_id = $1
		ORDER BY seq DESC
	`
	args := []any{sessionID}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sim.Transaction
	for rows.Next() {
		var (
			t        sim.Transaction
			day      int64
			category string
		)
		if err := rows.Scan(&t.ID, &day, &t.Amount, &category, &t.Description); err != nil {
			return nil, err
		}
		t.Day = uint32(day)
		t.Category = sim.Category(category)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
