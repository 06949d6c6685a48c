package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lysyi3m/scrape-comb/app/database"
	"github.com/lysyi3m/scrape-comb/app/detector"
	"github.com/lysyi3m/scrape-comb/app/scrapers"
	"github.com/lysyi3m/scrape-comb/app/tracker"
)

// ScrapeTask is one scheduled firing for a scraper: open a run, let the
// strategy fetch, run change detection, close the run with a terminal
// status. Every failure mode is contained here; nothing escapes to the
// scheduler.
type ScrapeTask struct {
	scraper  database.Scraper
	strategy scrapers.Strategy
	tracker  *tracker.Tracker
	engine   *detector.Engine
}

func NewScrapeTask(scraper database.Scraper, strategy scrapers.Strategy,
	runTracker *tracker.Tracker, engine *detector.Engine) *ScrapeTask {
	return &ScrapeTask{
		scraper:  scraper,
		strategy: strategy,
		tracker:  runTracker,
		engine:   engine,
	}
}

func (t *ScrapeTask) Execute(ctx context.Context) {
	started := time.Now()

	runID, err := t.tracker.Begin(t.scraper.KnownID)
	if err != nil {
		// No run row exists yet, so there is nothing to close.
		slog.Error("Failed to open run", "scraper", t.scraper.KnownID, "error", err)
		return
	}

	raw, err := t.strategy.Scrape(ctx)
	if err != nil {
		slog.Error("Scrape failed", "scraper", t.scraper.KnownID, "run_id", runID, "error", err)
		t.complete(runID, database.RunStatusFailure)
		return
	}

	outcome, err := t.engine.Process(ctx, t.scraper, runID, raw, t.strategy)
	if err != nil {
		var validationErr *scrapers.ValidationError
		if errors.As(err, &validationErr) {
			slog.Error("Validation failed", "scraper", t.scraper.KnownID, "run_id", runID, "error", err)
		} else {
			slog.Error("Change detection failed", "scraper", t.scraper.KnownID, "run_id", runID, "error", err)
		}
		t.complete(runID, database.RunStatusFailure)
		return
	}

	status := database.RunStatusCached
	if outcome == detector.OutcomeChanged {
		status = database.RunStatusSuccess
	}
	t.complete(runID, status)

	slog.Info("Run completed",
		"scraper", t.scraper.KnownID,
		"run_id", runID,
		"outcome", outcome.String(),
		"status", string(status),
		"duration", time.Since(started))
}

func (t *ScrapeTask) complete(runID string, status database.RunStatus) {
	if err := t.tracker.Complete(runID, status); err != nil {
		slog.Error("Failed to close run", "run_id", runID, "status", string(status), "error", err)
	}
}
