package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsim/internal/api"
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

	gameSvc := game.NewService(st, tuning, logger)

	if cfg.AutoAdvanceCron != "" {
		sched := scheduler.New(ctx, gameSvc, cfg.AutoAdvanceDays, logger)
		if err := sched.Register(cfg.AutoAdvanceCron); err != nil {
			logger.Error("scheduler init failed", "err", err)
			os.Exit(1)
		}
		if cfg.AdvanceOnStart {
			if n, err := sched.RunNow(); err != nil {
				logger.Error("startup auto-advance failed", "advanced", n, "err", err)
			}
		}
		sched.Start()
		defer sched.Stop()
	}

	server, err := api.New(cfg, logger, gameSvc, tuning)
	if err != nil {
		logger.Error("api init failed", "err", err)
		os.Exit(1)
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("finsim api listening", "addr", cfg.Addr, "store", cfg.StoreKind)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
