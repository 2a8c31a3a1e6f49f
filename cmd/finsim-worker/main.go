// Command finsim-worker advances auto-advance sessions without serving HTTP.
// Run it instead of setting FINSIM_AUTO_ADVANCE_CRON on the API, not alongside:
// the API caches live sessions and would overwrite the worker's saves.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"finsim/internal/config"
	"finsim/internal/game"
	"finsim/internal/scheduler"
	"finsim/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		logger.Error("load tuning failed", "path", cfg.TuningPath, "err", err)
		os.Exit(1)
	}
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("store open failed", "kind", cfg.StoreKind, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	svc := game.NewService(st, tuning, logger)
	sched := scheduler.New(ctx, svc, cfg.AutoAdvanceDays, logger)

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("FINSIM_WORKER_RUN_ONCE")), "true")
	if runOnce {
		n, err := sched.RunNow()
		if err != nil {
			logger.Error("auto-advance failed", "advanced", n, "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "advanced", n, "days", cfg.AutoAdvanceDays)
		return
	}

	spec := cfg.AutoAdvanceCron
	if spec == "" {
		spec = "0 0 * * * *"
	}
	if err := sched.Register(spec); err != nil {
		logger.Error("scheduler init failed", "err", err)
		os.Exit(1)
	}
	if cfg.AdvanceOnStart {
		if n, err := sched.RunNow(); err != nil {
			logger.Error("startup auto-advance failed", "advanced", n, "err", err)
		}
	}
	sched.Start()
	logger.Info("worker started", "cron", spec, "days", cfg.AutoAdvanceDays)
	<-ctx.Done()
	sched.Stop()
	logger.Info("worker shutdown")
}
