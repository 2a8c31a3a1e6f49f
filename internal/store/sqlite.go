package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"finsim/internal/sim"

	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Fixed-width so that text ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps sessions in a single SQLite file and archives every
// transaction it is handed.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, "migrations/sqlite/*.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", base, time.Now().UTC().Format(sqliteTime)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, name, auto_advance, total_days, net_worth, created_at, updated_at, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			auto_advance = excluded.auto_advance,
			total_days = excluded.total_days,
			net_worth = excluded.net_worth,
			updated_at = excluded.updated_at,
			record = excluded.record
	`, rec.ID, rec.Name, rec.AutoAdvance, rec.Snapshot.Clock.TotalDays, rec.Snapshot.Ledger.NetWorth,
		rec.CreatedAt.UTC().Format(sqliteTime), rec.UpdatedAt.UTC().Format(sqliteTime), string(body)); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (session_id, tx_id, day, amount, category, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, tx_id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, t := range rec.Snapshot.Transactions {
		if _, err := stmt.ExecContext(ctx, rec.ID, t.ID, t.Day, t.Amount, string(t.Category), t.Description); err != nil {
			return fmt.Errorf("archive transaction %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT record FROM sessions WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
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
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.AutoAdvance, &sum.TotalDays, &sum.NetWorth, &updated); err != nil {
			return nil, err
		}
		if sum.UpdatedAt, err = time.Parse(sqliteTime, updated); err != nil {
			return nil, fmt.Errorf("parse updated_at for %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE session_id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// History returns archived transactions for a session, newest first.
func (s *SQLiteStore) History(ctx context.Context, sessionID string, limit int) ([]sim.Transaction, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_id, day, amount, category, description
		FROM transactions
		WHERE session_id = ?
		ORDER BY seq DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sim.Transaction
	for rows.Next() {
		var (
			t        sim.Transaction
			category string
		)
		if err := rows.Scan(&t.ID, &t.Day, &t.Amount, &category, &t.Description); err != nil {
			return nil, err
		}
		t.Category = sim.Category(category)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
