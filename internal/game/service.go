package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"finsim/internal/sim"
	"finsim/internal/store"

	"github.com/google/uuid"
)

// Service owns the live sessions. Each session has its own lock; every call
// holds it for the engine mutation and the save that follows.
type Service struct {
	store  store.Store
	tuning sim.Tuning
	log    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session

	subMu sync.Mutex
	subs  map[string]map[chan Update]struct{}
}

type session struct {
	mu      sync.Mutex
	rec     store.Record
	engine  *sim.Engine
	deleted bool
}

func NewService(st store.Store, tuning sim.Tuning, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		tuning:   tuning,
		log:      logger,
		sessions: make(map[string]*session),
		subs:     make(map[string]map[chan Update]struct{}),
	}
}

func (s *Service) CreateSession(ctx context.Context, name string, p sim.Params, autoAdvance bool) (State, error) {
	name = strings.TrimSpace(name)
	if err := ValidateSessionName(name); err != nil {
		return State{}, err
	}
	if p.Seed == 0 {
		p.Seed = rand.Uint64()
	}
	id := uuid.NewString()
	engine, err := sim.NewEngine(p, s.tuning, s.log.With("session", id))
	if err != nil {
		return State{}, err
	}
	snap, err := engine.Snapshot()
	if err != nil {
		return State{}, err
	}
	now := time.Now().UTC()
	sess := &session{
		rec: store.Record{
			ID:          id,
			Name:        name,
			CreatedAt:   now,
			UpdatedAt:   now,
			AutoAdvance: autoAdvance,
			Snapshot:    snap,
		},
		engine: engine,
	}
	if err := s.store.Save(ctx, sess.rec); err != nil {
		return State{}, fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	s.log.Info("session created", "session", id, "name", name, "seed", p.Seed)
	return stateOf(sess.rec, engine), nil
}

func (s *Service) ListSessions(ctx context.Context) ([]store.Summary, error) {
	return s.store.List(ctx)
}

func (s *Service) session(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	engine, err := sim.FromSnapshot(rec.Snapshot, s.log.With("session", id))
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	sess = &session{rec: rec, engine: engine}
	s.sessions[id] = sess
	return sess, nil
}

// lockSession resolves id and returns its session locked. A session deleted
// while the caller waited for the lock reports ErrSessionNotFound.
func (s *Service) lockSession(ctx context.Context, id string) (*session, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if sess.deleted {
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *Service) State(ctx context.Context, id string) (State, error) {
	sess, err := s.lockSession(ctx, id)
	if err != nil {
		return State{}, err
	}
	defer sess.mu.Unlock()
	return stateOf(sess.rec, sess.engine), nil
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	sess, err := s.lockSession(ctx, id)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	sess.deleted = true
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.closeSubscribers(id)
	s.log.Info("session deleted", "session", id)
	return nil
}

// execute runs fn against the session engine under its lock, then persists
// the new snapshot. A rejected fn leaves nothing to persist. A failed save
// rolls the engine back to the last persisted snapshot.
func (s *Service) execute(ctx context.Context, id, key, op string, fn func(e *sim.Engine) (*sim.AdvanceReport, error)) (State, error) {
	sess, err := s.lockSession(ctx, id)
	if err != nil {
		return State{}, err
	}
	defer sess.mu.Unlock()

	if err := claimIdempotency(&sess.rec, key); err != nil {
		return State{}, err
	}
	report, err := fn(sess.engine)
	if err != nil {
		return State{}, err
	}
	if err := s.commit(ctx, sess, key); err != nil {
		return State{}, err
	}
	state := stateOf(sess.rec, sess.engine)
	s.publish(Update{SessionID: id, Op: op, State: state, Report: report})
	return state, nil
}

func (s *Service) commit(ctx context.Context, sess *session, key string) error {
	snap, err := sess.engine.Snapshot()
	if err != nil {
		return err
	}
	next := sess.rec
	next.Snapshot = snap
	next.UpdatedAt = time.Now().UTC()
	next.AppliedKeys = append([]string(nil), sess.rec.AppliedKeys...)
	rememberKey(&next, key)
	if err := s.store.Save(ctx, next); err != nil {
		s.log.Error("save session failed, rolling back", "session", sess.rec.ID, "err", err)
		if restoreErr := sess.engine.Restore(sess.rec.Snapshot); restoreErr != nil {
			s.log.Error("rollback failed", "session", sess.rec.ID, "err", restoreErr)
		}
		return fmt.Errorf("save session: %w", err)
	}
	sess.rec = next
	return nil
}

func (s *Service) SetAutoAdvance(ctx context.Context, id, key string, on bool) (State, error) {
	sess, err := s.lockSession(ctx, id)
	if err != nil {
		return State{}, err
	}
	defer sess.mu.Unlock()
	if err := claimIdempotency(&sess.rec, key); err != nil {
		return State{}, err
	}
	prev := sess.rec.AutoAdvance
	sess.rec.AutoAdvance = on
	if err := s.commit(ctx, sess, key); err != nil {
		sess.rec.AutoAdvance = prev
		return State{}, err
	}
	return stateOf(sess.rec, sess.engine), nil
}

func (s *Service) ExportSnapshot(ctx context.Context, id string) (sim.Snapshot, error) {
	sess, err := s.lockSession(ctx, id)
	if err != nil {
		return sim.Snapshot{}, err
	}
	defer sess.mu.Unlock()
	return sess.engine.Snapshot()
}

func (s *Service) ImportSnapshot(ctx context.Context, id, key string, snap sim.Snapshot) (State, error) {
	return s.execute(ctx, id, key, "restore", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		return nil, e.Restore(snap)
	})
}

// History returns the archived transactions when the store keeps them and
// the engine's recent window otherwise. Newest first.
func (s *Service) History(ctx context.Context, id string, limit int) ([]sim.Transaction, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if archive, ok := s.store.(store.Archive); ok {
		return archive.History(ctx, id, limit)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess.engine.Transactions(limit), nil
}

// AdvanceAll moves every auto-advancing session forward. Failures are
// logged per session and do not stop the sweep.
func (s *Service) AdvanceAll(ctx context.Context, days uint32) (int, error) {
	sums, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	advanced := 0
	var errs []error
	for _, sum := range sums {
		if !sum.AutoAdvance {
			continue
		}
		if err := ctx.Err(); err != nil {
			return advanced, err
		}
		report, _, err := s.Advance(ctx, sum.ID, uuid.NewString(), days)
		if err != nil {
			s.log.Error("auto advance failed", "session", sum.ID, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", sum.ID, err))
			continue
		}
		advanced++
		s.log.Info("auto advanced", "session", sum.ID, "days", report.Days, "crises", len(report.Crises()))
	}
	return advanced, errors.Join(errs...)
}

// Subscribe registers for updates of one session. The returned cancel
// function must be called to release the subscription.
func (s *Service) Subscribe(id string) (<-chan Update, func()) {
	ch := make(chan Update, 16)
	s.subMu.Lock()
	if s.subs[id] == nil {
		s.subs[id] = make(map[chan Update]struct{})
	}
	s.subs[id][ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if _, ok := s.subs[id][ch]; ok {
				delete(s.subs[id], ch)
				close(ch)
			}
			if len(s.subs[id]) == 0 {
				delete(s.subs, id)
			}
		})
	}
}

func (s *Service) publish(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs[u.SessionID] {
		select {
		case ch <- u:
		default:
			s.log.Warn("stream subscriber lagging, update dropped", "session", u.SessionID, "op", u.Op)
		}
	}
}

func (s *Service) closeSubscribers(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs[id] {
		close(ch)
	}
	delete(s.subs, id)
}
