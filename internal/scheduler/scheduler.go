package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Advancer moves every auto-advance session forward by days.
type Advancer interface {
	AdvanceAll(ctx context.Context, days uint32) (int, error)
}

// Scheduler drives auto-advance sessions on a cron spec.
type Scheduler struct {
	Cron *cron.Cron
	Game Advancer
	Days uint32
	Ctx  context.Context

	log *slog.Logger
}

// New builds a scheduler. Specs use the six-field form with seconds.
func New(ctx context.Context, game Advancer, days uint32, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Game: game,
		Days: days,
		Ctx:  ctx,
		log:  logger,
	}
}

// Register adds the auto-advance task.
func (s *Scheduler) Register(spec string) error {
	if s.Days == 0 {
		return fmt.Errorf("auto-advance days must be > 0")
	}
	if _, err := s.Cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register auto-advance %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", "entries", len(s.Cron.Entries()), "days", s.Days)
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes one tick immediately (FINSIM_AUTO_ADVANCE_ON_START and run-once mode).
func (s *Scheduler) RunNow() (int, error) {
	return s.Game.AdvanceAll(s.Ctx, s.Days)
}

func (s *Scheduler) tick() {
	if err := s.Ctx.Err(); err != nil {
		return
	}
	n, err := s.Game.AdvanceAll(s.Ctx, s.Days)
	if err != nil {
		s.log.Error("auto-advance failed", "advanced", n, "err", err)
		return
	}
	s.log.Info("auto-advance complete", "advanced", n, "days", s.Days)
}
