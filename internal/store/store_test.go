package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finsim/internal/sim"

	"github.com/google/uuid"
)

func testRecord(t *testing.T, name string) Record {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := sim.NewEngine(sim.Params{
		StartingCash:   sim.Rupees(300_000),
		MainIncome:     sim.Rupees(40_000),
		LivingExpenses: sim.Rupees(15_000),
		Seed:           7,
	}, sim.DefaultTuning(), logger)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, err := e.PurchaseBond(sim.BondGovernment, sim.Rupees(50_000), 400, 3); err != nil {
		t.Fatalf("bond: %v", err)
	}
	if _, err := e.Advance(sim.DaysPerMonth); err != nil {
		t.Fatalf("advance: %v", err)
	}
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	return Record{
		ID:          uuid.NewString(),
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
		AppliedKeys: []string{"k1"},
		Snapshot:    snap,
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	rec := testRecord(t, "alpha")
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != rec.Name || got.Snapshot.Clock != rec.Snapshot.Clock || got.Snapshot.Ledger.Cash != rec.Snapshot.Ledger.Cash {
		t.Fatalf("loaded record differs: %+v", got.Summary())
	}
	if len(got.Snapshot.Transactions) != len(rec.Snapshot.Transactions) || len(got.AppliedKeys) != 1 {
		t.Fatalf("transactions=%d keys=%d", len(got.Snapshot.Transactions), len(got.AppliedKeys))
	}
	if _, err := sim.FromSnapshot(got.Snapshot, nil); err != nil {
		t.Fatalf("restore loaded snapshot: %v", err)
	}

	rec.Name = "alpha-renamed"
	rec.UpdatedAt = rec.UpdatedAt.Add(time.Hour)
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	other := testRecord(t, "beta")
	if err := s.Save(ctx, other); err != nil {
		t.Fatalf("save other: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list len=%d want 2", len(list))
	}
	if list[0].ID != rec.ID || list[0].Name != "alpha-renamed" {
		t.Fatalf("list not ordered by update: %+v", list)
	}

	if err := s.Delete(ctx, other.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load deleted err=%v", err)
	}
	if err := s.Delete(ctx, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete err=%v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)

	if _, err := s.Load(context.Background(), "../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("path escape err=%v", err)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finsim.sqlite")
	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	exerciseStore(t, s)
	s.Close()

	// Reopening must not reapply migrations.
	s, err = OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	list, err := s.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("list after reopen len=%d err=%v", len(list), err)
	}
}

func TestSQLiteArchivesBeyondWindow(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "finsim.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	rec := testRecord(t, "archive")
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Saving the same window again must not duplicate rows.
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("resave: %v", err)
	}
	first := len(rec.Snapshot.Transactions)

	rec.Snapshot.Transactions = []sim.Transaction{{ID: uuid.NewString(), Day: 99, Amount: 5, Category: sim.CategoryIncome, Description: "late"}}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save trimmed window: %v", err)
	}
	hist, err := s.History(ctx, rec.ID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != first+1 {
		t.Fatalf("history len=%d want %d", len(hist), first+1)
	}
	if hist[0].Description != "late" {
		t.Fatalf("newest first violated: %+v", hist[0])
	}
	if limited, _ := s.History(ctx, rec.ID, 1); len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	url := os.Getenv("FINSIM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINSIM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, err := s.pool.Exec(ctx, "TRUNCATE sessions, transactions"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	exerciseStore(t, s)
}
