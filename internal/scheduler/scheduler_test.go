package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeAdvancer struct {
	mu    sync.Mutex
	calls []uint32
	err   error
	ran   chan struct{}
}

func (f *fakeAdvancer) AdvanceAll(ctx context.Context, days uint32) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, days)
	f.mu.Unlock()
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	return 1, f.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(context.Background(), &fakeAdvancer{}, 1, quiet())
	if err := s.Register("every tuesday"); err == nil {
		t.Fatalf("expected bad spec to fail")
	}
	if err := s.Register("*/5 * * * *"); err == nil {
		t.Fatalf("expected five-field spec to fail with seconds parser")
	}
	if err := s.Register("0 */5 * * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestRegisterRejectsZeroDays(t *testing.T) {
	s := New(context.Background(), &fakeAdvancer{}, 0, quiet())
	if err := s.Register("@every 1s"); err == nil {
		t.Fatalf("expected zero days to fail")
	}
}

func TestRunNowPassesDays(t *testing.T) {
	f := &fakeAdvancer{err: errors.New("boom")}
	s := New(context.Background(), f, 7, quiet())
	if _, err := s.RunNow(); err == nil {
		t.Fatalf("expected error to surface")
	}
	if len(f.calls) != 1 || f.calls[0] != 7 {
		t.Fatalf("calls=%v", f.calls)
	}
}

func TestCronTicks(t *testing.T) {
	f := &fakeAdvancer{ran: make(chan struct{}, 1)}
	s := New(context.Background(), f, 3, quiet())
	if err := s.Register("@every 1s"); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Start()
	defer s.Stop()
	select {
	case <-f.ran:
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler never ticked")
	}
}

func TestTickSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeAdvancer{}
	s := New(ctx, f, 1, quiet())
	s.tick()
	if len(f.calls) != 0 {
		t.Fatalf("tick ran after cancel")
	}
}
