package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type APIConfig struct {
	Addr            string
	StoreKind       string
	DataDir         string
	SQLitePath      string
	DatabaseURL     string
	TuningPath      string
	AutoAdvanceCron string
	AutoAdvanceDays uint32
	AdvanceOnStart  bool
	StreamPing      time.Duration
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("FINSIM_API_ADDR", ":8080")
	}

	dataDir := envDefault("FINSIM_DATA_DIR", "data")
	cfg := APIConfig{
		Addr:            addr,
		StoreKind:       strings.ToLower(envDefault("FINSIM_STORE", StoreFile)),
		DataDir:         dataDir,
		SQLitePath:      envDefault("FINSIM_SQLITE_PATH", dataDir+"/finsim.sqlite"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TuningPath:      strings.TrimSpace(os.Getenv("FINSIM_TUNING")),
		AutoAdvanceCron: strings.TrimSpace(os.Getenv("FINSIM_AUTO_ADVANCE_CRON")),
		AutoAdvanceDays: uint32(envIntDefault("FINSIM_AUTO_ADVANCE_DAYS", 1)),
		AdvanceOnStart:  envBoolDefault("FINSIM_AUTO_ADVANCE_ON_START", false),
		StreamPing:      envDurationDefault("FINSIM_STREAM_PING", 30*time.Second),
	}
	switch cfg.StoreKind {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return cfg, fmt.Errorf("FINSIM_STORE must be one of file, sqlite, postgres (got %q)", cfg.StoreKind)
	}
	if cfg.AutoAdvanceDays == 0 {
		return cfg, fmt.Errorf("FINSIM_AUTO_ADVANCE_DAYS must be > 0")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("FSIM_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
