package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contentorbit/config"
	"contentorbit/orchestrator"
)

type fakeRunner struct {
	runs atomic.Int32
}

func (f *fakeRunner) RunPipeline(ctx context.Context) (*orchestrator.PipelineResult, error) {
	f.runs.Add(1)
	return &orchestrator.PipelineResult{Success: true}, nil
}

type fakeStateStore struct {
	postsToday int
	countErr   error

	mu    sync.Mutex
	state map[string]string
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{state: map[string]string{}}
}
func (f *fakeStateStore) CountPostsSince(t time.Time) (int, error) {
	return f.postsToday, f.countErr
}
func (f *fakeStateStore) SetState(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state[key] = value
	return nil
}
func (f *fakeStateStore) getState(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state[key]
}
func (f *fakeStateStore) AppendLog(level, component, message, details string) error { return nil }

func testScheduler(cfg *config.AppConfig) (*Scheduler, *fakeRunner, *fakeStateStore) {
	runner := &fakeRunner{}
	db := newFakeStateStore()
	s := &Scheduler{
		Config: func() *config.AppConfig { return cfg },
		Runner: runner,
		DB:     db,
	}
	return s, runner, db
}

// at returns a fixed UTC clock for deterministic gating
func at(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 23, hour, 30, 0, 0, time.UTC)
	}
}

func utcConfig() *config.AppConfig {
	cfg := config.Default()
	cfg.Schedule.Timezone = "UTC"
	cfg.Schedule.ActiveHoursStart = 8
	cfg.Schedule.ActiveHoursEnd = 23
	return cfg
}

func TestCanRunInsideWindow(t *testing.T) {
	cfg := utcConfig()
	s, _, _ := testScheduler(cfg)
	s.Now = at(12)

	ok, reason := s.canRun(cfg, s.Now())
	if !ok {
		t.Fatalf("blocked inside window: %s", reason)
	}
}

func TestCanRunOutsideWindow(t *testing.T) {
	cfg := utcConfig()
	s, _, _ := testScheduler(cfg)

	for _, hour := range []int{0, 3, 7} {
		s.Now = at(hour)
		if ok, _ := s.canRun(cfg, s.Now()); ok {
			t.Errorf("hour %d should be outside the %d-%d window", hour,
				cfg.Schedule.ActiveHoursStart, cfg.Schedule.ActiveHoursEnd)
		}
	}
}

func TestCanRunOvernightWindow(t *testing.T) {
	cfg := utcConfig()
	cfg.Schedule.ActiveHoursStart = 22
	cfg.Schedule.ActiveHoursEnd = 6
	s, _, _ := testScheduler(cfg)

	tests := []struct {
		hour int
		want bool
	}{
		{23, true}, {2, true}, {6, true},
		{7, false}, {12, false}, {21, false},
	}
	for _, tt := range tests {
		s.Now = at(tt.hour)
		if ok, _ := s.canRun(cfg, s.Now()); ok != tt.want {
			t.Errorf("hour %d: canRun = %v, want %v", tt.hour, ok, tt.want)
		}
	}
}

func TestCanRunDailyCap(t *testing.T) {
	cfg := utcConfig()
	cfg.Schedule.MaxPostsPerDay = 3
	s, _, db := testScheduler(cfg)
	s.Now = at(12)

	db.postsToday = 2
	if ok, _ := s.canRun(cfg, s.Now()); !ok {
		t.Error("under the cap should run")
	}

	db.postsToday = 3
	if ok, reason := s.canRun(cfg, s.Now()); ok {
		t.Errorf("at the cap should block, got ok (%s)", reason)
	}
}

func TestCanRunCapCheckFailureAllows(t *testing.T) {
	cfg := utcConfig()
	s, _, db := testScheduler(cfg)
	s.Now = at(12)
	db.countErr = context.DeadlineExceeded

	if ok, _ := s.canRun(cfg, s.Now()); !ok {
		t.Error("a broken counter must not stall publishing")
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	cfg := utcConfig()
	cfg.Schedule.PostingIntervalMinutes = 60 // only the immediate run fires
	s, runner, db := testScheduler(cfg)
	s.Now = at(12)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}

	deadline := time.After(2 * time.Second)
	for runner.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("immediate run never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if db.getState("bot_running") != "true" {
		t.Error("bot_running not recorded")
	}

	s.Stop()
	if s.Running() {
		t.Error("still running after Stop")
	}
	if db.getState("bot_running") != "false" {
		t.Error("bot_running not cleared")
	}
}

func TestParentContextCancelClearsRunning(t *testing.T) {
	cfg := utcConfig()
	cfg.Schedule.PostingIntervalMinutes = 60
	s, _, db := testScheduler(cfg)
	s.Now = at(3) // outside the window, no run fires

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for s.Running() || db.getState("bot_running") != "false" {
		select {
		case <-deadline:
			t.Fatalf("loop left stale state: running=%v bot_running=%q",
				s.Running(), db.getState("bot_running"))
		case <-time.After(10 * time.Millisecond):
		}
	}

	// a fresh Start must succeed after the orphaned loop cleaned up
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart after cancel failed: %v", err)
	}
	s.Stop()
}

func TestStatusSnapshot(t *testing.T) {
	cfg := utcConfig()
	s, _, db := testScheduler(cfg)
	s.Now = at(12)
	db.postsToday = 4

	st := s.Status()
	if st.Running {
		t.Error("not started yet")
	}
	if st.PostsToday != 4 || st.MaxPerDay != cfg.Schedule.MaxPostsPerDay {
		t.Errorf("counters = %d/%d", st.PostsToday, st.MaxPerDay)
	}
	if !st.InWindow {
		t.Error("noon should be inside the window")
	}
}
