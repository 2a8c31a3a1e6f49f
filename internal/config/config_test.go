package config

import (
	"os"
	"path/filepath"
	"testing"

	"finsim/internal/sim"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FINSIM_STORE", "")
	t.Setenv("FINSIM_AUTO_ADVANCE_DAYS", "")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.StoreKind != StoreFile || cfg.AutoAdvanceDays != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadAPIFromEnvRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"FINSIM_STORE": "redis"}},
		{"postgres without url", map[string]string{"FINSIM_STORE": "postgres", "DATABASE_URL": ""}},
		{"zero days", map[string]string{"FINSIM_AUTO_ADVANCE_DAYS": "0"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadAPIFromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadTuningOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := []byte("junk_default_chance_bps: 2500\nhospital_turns: 3\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := sim.DefaultTuning()
	if got.JunkDefaultChanceBps != 2500 || got.HospitalTurns != 3 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.PenaltyRateBps != def.PenaltyRateBps || len(got.Sectors) != len(def.Sectors) {
		t.Fatalf("defaults lost")
	}
}

func TestLoadTuningRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("junk_default_chance_bps: 20000\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
