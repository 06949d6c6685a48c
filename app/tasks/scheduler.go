package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/scrape-comb/app/database"
	"github.com/lysyi3m/scrape-comb/app/detector"
	"github.com/lysyi3m/scrape-comb/app/scrapers"
	"github.com/lysyi3m/scrape-comb/app/tracker"
)

// TaskFunc is the unit of work a job fires on each tick.
type TaskFunc func(ctx context.Context)

// JobInfo is the externally visible state of one registered job.
type JobInfo struct {
	ID       string
	Interval time.Duration
	Stopped  bool
}

type job struct {
	id       string
	interval time.Duration
	task     TaskFunc
	cancel   context.CancelFunc
	stopped  bool
}

var _ SchedulerInterface = (*Scheduler)(nil)

// Scheduler maintains one recurring timer per active scraper, keyed by
// known ID. Jobs fire once when armed and then at their interval. A
// per-scraper in-flight guard skips a firing while the previous one is
// still running, so two detections for the same scraper never overlap.
type Scheduler struct {
	scraperRepo database.ScraperRepository
	strategies  map[string]scrapers.Strategy
	tracker     *tracker.Tracker
	engine      *detector.Engine

	mu     sync.Mutex
	jobs   map[string]*job
	guards map[string]*atomic.Bool
	wg     sync.WaitGroup
}

func NewScheduler(scraperRepo database.ScraperRepository, strategies map[string]scrapers.Strategy,
	runTracker *tracker.Tracker, engine *detector.Engine) *Scheduler {
	return &Scheduler{
		scraperRepo: scraperRepo,
		strategies:  strategies,
		tracker:     runTracker,
		engine:      engine,
		jobs:        make(map[string]*job),
		guards:      make(map[string]*atomic.Bool),
	}
}

// Start loads all active scrapers and registers a job for each. A
// scraper with no resolvable strategy is logged and skipped; it never
// prevents the others from being scheduled.
func (s *Scheduler) Start() error {
	activeScrapers, err := s.scraperRepo.GetActiveScrapers()
	if err != nil {
		return fmt.Errorf("failed to load active scrapers: %w", err)
	}

	for _, scraper := range activeScrapers {
		strategy, ok := s.strategies[scraper.KnownID]
		if !ok {
			slog.Warn("No strategy resolved for scraper, skipping", "scraper", scraper.KnownID)
			continue
		}

		task := NewScrapeTask(scraper, strategy, s.tracker, s.engine)
		s.AddJob(scraper.KnownID, scraper.Interval, task.Execute)
	}

	slog.Info("Scheduler started", "jobs", len(s.jobs))
	return nil
}

// AddJob registers and immediately arms a recurring timer keyed by id.
// Re-registering an id replaces the prior timer instead of duplicating
// it; the in-flight guard for the id is kept, so a replacement job
// still cannot overlap a run the old job left in flight.
func (s *Scheduler) AddJob(id string, intervalSeconds int, task TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[id]; ok {
		slog.Debug("Replacing existing job", "job", id)
		if !existing.stopped {
			existing.cancel()
		}
	}
	if _, ok := s.guards[id]; !ok {
		s.guards[id] = &atomic.Bool{}
	}

	j := &job{
		id:       id,
		interval: time.Duration(intervalSeconds) * time.Second,
		task:     task,
	}
	s.jobs[id] = j
	s.armLocked(j)

	slog.Info("Job added", "job", id, "interval", j.interval)
}

// RemoveJob cancels and forgets a single job without affecting others.
func (s *Scheduler) RemoveJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return
	}
	if !j.stopped {
		j.cancel()
	}
	delete(s.jobs, id)

	slog.Info("Job removed", "job", id)
}

// StopJob halts future firings of a job but keeps its registration.
func (s *Scheduler) StopJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if j.stopped {
		return nil
	}
	j.cancel()
	j.stopped = true

	slog.Info("Job stopped", "job", id)
	return nil
}

// StartJob re-arms a previously stopped job.
func (s *Scheduler) StartJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if !j.stopped {
		return nil
	}
	j.stopped = false
	s.armLocked(j)

	slog.Info("Job started", "job", id)
	return nil
}

// GetJob returns the state of a single job.
func (s *Scheduler) GetJob(id string) (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return JobInfo{}, false
	}
	return JobInfo{ID: j.id, Interval: j.interval, Stopped: j.stopped}, true
}

// Stop cancels all timers and waits for in-flight executions to finish.
// A run already in progress is never interrupted; it reaches a terminal
// status normally.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for _, j := range s.jobs {
		if !j.stopped {
			j.cancel()
			j.stopped = true
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

// armLocked launches the timer goroutine for a job. Caller holds s.mu.
func (s *Scheduler) armLocked(j *job) {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Fire once on arming, then on every tick.
		s.fire(ctx, j)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.fire(ctx, j)
			}
		}
	}()
}

// fire runs one firing of a job. The firing is skipped entirely when
// the previous execution for the same scraper has not completed: no run
// row is created for a skipped firing. The task itself runs with a
// background context so that Stop does not interrupt it.
func (s *Scheduler) fire(ctx context.Context, j *job) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	guard := s.guards[j.id]
	s.mu.Unlock()

	if !guard.CompareAndSwap(false, true) {
		slog.Warn("Previous run still in flight, skipping firing", "job", j.id)
		return
	}
	defer guard.Store(false)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Job panicked", "job", j.id, "panic", r)
		}
	}()

	j.task(context.Background())
}
