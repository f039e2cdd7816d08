// Package scheduler triggers daily screening runs against the loaded product
// list and warns when the last run goes stale.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/nitrosamine-monitor/interfaces"
	"github.com/giygas/nitrosamine-monitor/logging"
	"github.com/giygas/nitrosamine-monitor/monitor"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// DefaultStaleAfter is the last-run age past which the monitor warns.
const DefaultStaleAfter = 25 * time.Hour

// Scheduler runs the screening once a day at a fixed local time.
type Scheduler struct {
	store  interfaces.StateStore
	runner interfaces.Runner
	at     string

	staleAfter time.Duration
	checkEvery time.Duration
	scheduler  *gocron.Scheduler

	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a scheduler running at the given "HH:MM" times,
// separated by semicolons.
func NewScheduler(store interfaces.StateStore, runner interfaces.Runner, at string) *Scheduler {
	return &Scheduler{
		store:      store,
		runner:     runner,
		at:         at,
		staleAfter: DefaultStaleAfter,
		checkEvery: time.Hour,
		scheduler:  gocron.NewScheduler(time.Local),
		done:       make(chan struct{}),
	}
}

// Start schedules the daily run and the staleness monitor.
func (s *Scheduler) Start() error {
	// A singleton job never overlaps itself; the store guards against
	// HTTP-triggered runs.
	_, err := s.scheduler.Every(1).Days().At(s.at).SingletonMode().Do(func() {
		if err := s.runOnce(context.Background()); err != nil {
			logging.Error("Scheduled run failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule runs", "at", s.at, "error", err)
		return fmt.Errorf("failed to schedule runs at %q: %w", s.at, err)
	}

	s.scheduler.StartAsync()
	s.startStaleMonitoring()
	logging.Info("Scheduler started", "at", s.at)
	return nil
}

// Stop stops the scheduler and the staleness monitor.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.scheduler.Stop()
	})
}

// runOnce performs one scheduled run. Missing products and a run already
// in progress are skips, not failures.
func (s *Scheduler) runOnce(ctx context.Context) error {
	if len(s.store.State().Products) == 0 {
		logging.Info("No product list loaded, skipping scheduled run")
		return nil
	}

	start := time.Now()
	run, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, monitor.ErrRunInProgress):
		logging.Info("Run already in progress, skipping...")
		return nil
	case errors.Is(err, monitor.ErrNoProducts):
		logging.Info("No product list loaded, skipping scheduled run")
		return nil
	case err != nil:
		return fmt.Errorf("scheduled run: %w", err)
	}

	logging.Info("Scheduled run completed",
		"run_id", run.ID,
		"records", len(run.Records),
		"new", run.NewRecords,
		"duration", time.Since(start).String(),
	)
	return nil
}

// checkStale warns when the last run is older than staleAfter.
func (s *Scheduler) checkStale(now time.Time) bool {
	state := s.store.State()
	if len(state.Products) == 0 {
		return false
	}
	last := s.store.GetServerStartTime()
	if state.LastRun != nil {
		last = state.LastRun.FinishedAt
	}
	if now.Sub(last) > s.staleAfter {
		logging.Warn("No screening run completed recently", "since", last.Format(time.RFC3339), "threshold", s.staleAfter.String())
		return true
	}
	return false
}

func (s *Scheduler) startStaleMonitoring() {
	go func() {
		ticker := time.NewTicker(s.checkEvery)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case now := <-ticker.C:
				s.checkStale(now)
			}
		}
	}()
}
