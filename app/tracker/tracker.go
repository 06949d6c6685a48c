// Package tracker owns the Run lifecycle: it opens a run around one
// execution attempt and maps the outcome to a terminal status.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/scrape-comb/app/database"
)

type Tracker struct {
	runRepo database.RunRepository
}

func New(runRepo database.RunRepository) *Tracker {
	return &Tracker{runRepo: runRepo}
}

// Begin creates a run in status "running" and returns its ID. Store
// failures propagate; there are no retries at this layer.
func (t *Tracker) Begin(scraperKnownID string) (string, error) {
	runID, err := t.runRepo.SaveRun(scraperKnownID)
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}

	slog.Debug("Run opened", "scraper", scraperKnownID, "run_id", runID)
	return runID, nil
}

// Complete sets a terminal status exactly once. Completing a run twice
// is a programming error; it is logged loudly and rejected.
func (t *Tracker) Complete(runID string, status database.RunStatus) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}

	err := t.runRepo.UpdateRunStatus(runID, status)
	if errors.Is(err, database.ErrInvalidStateTransition) {
		slog.Error("Attempted to complete an already-terminal run", "run_id", runID, "status", status, "error", err)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	slog.Debug("Run closed", "run_id", runID, "status", status)
	return nil
}
