package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"finsim/internal/config"
	"finsim/internal/sim"
)

var ErrNotFound = errors.New("session not found")

// Record is one persisted session: metadata plus the engine snapshot.
type Record struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	AutoAdvance bool         `json:"auto_advance"`
	AppliedKeys []string     `json:"applied_keys,omitempty"`
	Snapshot    sim.Snapshot `json:"snapshot"`
}

type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AutoAdvance bool      `json:"auto_advance"`
	TotalDays   uint32    `json:"total_days"`
	NetWorth    int64     `json:"net_worth"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r Record) Summary() Summary {
	return Summary{
		ID:          r.ID,
		Name:        r.Name,
		AutoAdvance: r.AutoAdvance,
		TotalDays:   r.Snapshot.Clock.TotalDays,
		NetWorth:    r.Snapshot.Ledger.NetWorth,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Store persists session records. Save overwrites any record with the same ID.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Archive is implemented by stores that keep every transaction ever saved,
// beyond the engine's capped window.
type Archive interface {
	History(ctx context.Context, sessionID string, limit int) ([]sim.Transaction, error)
}

func Open(ctx context.Context, cfg config.APIConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.StoreKind {
	case config.StoreFile:
		s, err := NewFileStore(filepath.Join(cfg.DataDir, "sessions"))
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", "kind", cfg.StoreKind, "dir", s.dir)
		return s, nil
	case config.StoreSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", "kind", cfg.StoreKind, "path", cfg.SQLitePath)
		return s, nil
	case config.StorePostgres:
		s, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", "kind", cfg.StoreKind)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store %q", cfg.StoreKind)
	}
}
