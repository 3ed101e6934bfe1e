package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNextFireIn_LaterToday(t *testing.T) {
	now := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	got := nextFireIn(now, 3, 0)
	if got != time.Hour {
		t.Errorf("nextFireIn = %v, want 1h", got)
	}
}

func TestNextFireIn_AlreadyPassedToday(t *testing.T) {
	now := time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC)
	got := nextFireIn(now, 3, 0)
	want := 22 * time.Hour
	if got != want {
		t.Errorf("nextFireIn = %v, want %v", got, want)
	}
}

func TestNextFireIn_ExactlyNow(t *testing.T) {
	now := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	got := nextFireIn(now, 3, 0)
	if got != 24*time.Hour {
		t.Errorf("nextFireIn at exact fire time = %v, want 24h (fires next day)", got)
	}
}

func TestRunOnce_SkipsConcurrentRun(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	j := &job{name: "test", run: func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return nil
	}}

	s := &Scheduler{logger: zap.NewNop(), now: time.Now}

	go s.runOnce(context.Background(), j)
	<-started

	// A second concurrent invocation should be skipped, not queued.
	s.runOnce(context.Background(), j)
	close(release)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("run count = %d, want 1 (second call should have been skipped)", got)
	}
}

func TestRunOnce_LogsJobError(t *testing.T) {
	j := &job{name: "failing", run: func(ctx context.Context) error {
		return errors.New("boom")
	}}
	s := &Scheduler{logger: zap.NewNop(), now: time.Now}
	s.runOnce(context.Background(), j) // must not panic
}
