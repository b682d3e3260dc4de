// Package scheduler drives the pipeline on a fixed interval, gated by
// active hours and the daily posting cap.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"contentorbit/config"
	"contentorbit/orchestrator"
	"contentorbit/rssfeeds"
)

// Runner executes one publishing cycle
type Runner interface {
	RunPipeline(ctx context.Context) (*orchestrator.PipelineResult, error)
}

// StateStore is the slice of the store the scheduler needs
type StateStore interface {
	CountPostsSince(t time.Time) (int, error)
	SetState(key, value string) error
	AppendLog(level, component, message, details string) error
}

// Scheduler runs the pipeline every interval while allowed
type Scheduler struct {
	Config func() *config.AppConfig
	Runner Runner
	DB     StateStore

	// Now is swapped in tests; defaults to time.Now
	Now func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastRun time.Time
}

// Status is the scheduler snapshot exposed on the dashboard
type Status struct {
	Running    bool       `json:"running"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
	PostsToday int        `json:"posts_today"`
	MaxPerDay  int        `json:"max_per_day"`
	InWindow   bool       `json:"in_active_window"`
}

// Start launches the posting loop. The first cycle fires immediately
// when the window and cap allow it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("scheduler already running")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	if s.Now == nil {
		s.Now = time.Now
	}

	_ = s.DB.SetState("bot_running", "true")
	_ = s.DB.SetState("bot_started_at", s.Now().UTC().Format(time.RFC3339))
	log.Printf("✅ Scheduler started, interval %s", s.Config().Schedule.Interval())

	go s.loop(ctx, s.done)
	return nil
}

// Stop halts the loop and waits for an in-flight run to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	_ = s.DB.SetState("bot_running", "false")
	log.Println("✅ Scheduler stopped")
}

// Running reports whether the loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Status reports the current gate state
func (s *Scheduler) Status() Status {
	cfg := s.Config()
	now := s.now().In(cfg.Schedule.Location())
	posts, _ := s.postsToday(cfg, now)

	st := Status{
		Running:    s.Running(),
		PostsToday: posts,
		MaxPerDay:  cfg.Schedule.MaxPostsPerDay,
		InWindow:   cfg.Schedule.InActiveHours(now),
	}
	s.mu.Lock()
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRunAt = &last
		if s.cancel != nil {
			next := last.Add(cfg.Schedule.Interval())
			st.NextRunAt = &next
		}
	}
	s.mu.Unlock()
	return st
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	// A parent context can die without Stop being called (process
	// shutdown, a canceled caller). The loop must not leave Running()
	// and bot_running reporting a scheduler that no longer exists.
	defer func() {
		close(done)
		s.mu.Lock()
		orphaned := s.done == done && s.cancel != nil
		if orphaned {
			s.cancel = nil
		}
		s.mu.Unlock()
		if orphaned {
			_ = s.DB.SetState("bot_running", "false")
			log.Println("⏸️ Scheduler context canceled, loop stopped")
		}
	}()

	s.tick(ctx)
	for {
		interval := s.Config().Schedule.Interval()
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	cfg := s.Config()
	now := s.now().In(cfg.Schedule.Location())

	if ok, reason := s.canRun(cfg, now); !ok {
		log.Printf("⏸️ Skipping cycle: %s", reason)
		return
	}

	s.mu.Lock()
	s.lastRun = s.now()
	s.mu.Unlock()

	result, err := s.Runner.RunPipeline(ctx)
	switch {
	case errors.Is(err, orchestrator.ErrAlreadyRunning):
		log.Println("⏸️ Previous run still in progress, skipping")
	case errors.Is(err, rssfeeds.ErrNoFreshArticle):
		log.Println("⏸️ Nothing fresh to publish this cycle")
	case err != nil:
		log.Printf("❌ Scheduled run failed: %v", err)
	default:
		log.Printf("✅ Scheduled run done: success=%v platforms=%v", result.Success, result.Platforms)
	}
}

// canRun applies the active-hours window and the daily cap
func (s *Scheduler) canRun(cfg *config.AppConfig, now time.Time) (bool, string) {
	if !cfg.Schedule.InActiveHours(now) {
		return false, fmt.Sprintf("outside active hours %02d:00-%02d:00",
			cfg.Schedule.ActiveHoursStart, cfg.Schedule.ActiveHoursEnd)
	}
	posts, err := s.postsToday(cfg, now)
	if err != nil {
		// counting failures must not silently stall publishing
		log.Printf("⚠️ Daily cap check failed, allowing run: %v", err)
		return true, ""
	}
	if cfg.Schedule.MaxPostsPerDay > 0 && posts >= cfg.Schedule.MaxPostsPerDay {
		return false, fmt.Sprintf("daily cap reached (%d/%d)", posts, cfg.Schedule.MaxPostsPerDay)
	}
	return true, ""
}

func (s *Scheduler) postsToday(cfg *config.AppConfig, now time.Time) (int, error) {
	local := now.In(cfg.Schedule.Location())
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	return s.DB.CountPostsSince(dayStart)
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
