package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRepositoryImpl handles database operations for scrape runs
type RunRepositoryImpl struct {
	db *DB
}

var _ RunRepository = (*RunRepositoryImpl)(nil)

func NewRunRepository(db *DB) *RunRepositoryImpl {
	return &RunRepositoryImpl{db: db}
}

// SaveRun opens a new run in status "running" for the given scraper and
// returns its ID. Returns ErrScraperNotFound for an unknown known ID.
func (r *RunRepositoryImpl) SaveRun(scraperKnownID string) (string, error) {
	runID := uuid.NewString()
	now := time.Now().UTC()

	res, err := r.db.Exec(`
		INSERT INTO runs (id, scraper_id, status, created_at, updated_at)
		SELECT ?, id, ?, ?, ?
		FROM scrapers
		WHERE known_id = ?
	`, runID, RunStatusRunning, now, now, scraperKnownID)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to check saved run: %w", err)
	}
	if affected == 0 {
		return "", fmt.Errorf("%w: %s", ErrScraperNotFound, scraperKnownID)
	}

	return runID, nil
}

// UpdateRunStatus moves a run from "running" to a terminal status.
// Returns ErrInvalidStateTransition when the run is already terminal
// and ErrRunNotFound when the run does not exist.
func (r *RunRepositoryImpl) UpdateRunStatus(runID string, status RunStatus) error {
	res, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, status, time.Now().UTC(), runID, RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check run status update: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Nothing matched: distinguish a missing run from a terminal one.
	var current RunStatus
	err = r.db.QueryRow("SELECT status FROM runs WHERE id = ?", runID).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect run status: %w", err)
	}

	return fmt.Errorf("%w: run %s is %s", ErrInvalidStateTransition, runID, current)
}

// GetRun retrieves a run by its ID.
func (r *RunRepositoryImpl) GetRun(runID string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT r.id, r.scraper_id, s.known_id, r.status, r.created_at, r.updated_at
		FROM runs r
		JOIN scrapers s ON s.id = r.scraper_id
		WHERE r.id = ?
	`, runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// GetLatestRun returns the most recently created run for a scraper, or
// nil when the scraper has never run.
func (r *RunRepositoryImpl) GetLatestRun(scraperKnownID string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT r.id, r.scraper_id, s.known_id, r.status, r.created_at, r.updated_at
		FROM runs r
		JOIN scrapers s ON s.id = r.scraper_id
		WHERE s.known_id = ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT 1
	`, scraperKnownID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return run, nil
}

// ListRuns returns a page of runs for a scraper, newest first, plus the
// total count.
func (r *RunRepositoryImpl) ListRuns(scraperKnownID string, limit, offset int) ([]Run, int, error) {
	var total int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM runs r
		JOIN scrapers s ON s.id = r.scraper_id
		WHERE s.known_id = ?
	`, scraperKnownID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT r.id, r.scraper_id, s.known_id, r.status, r.created_at, r.updated_at
		FROM runs r
		JOIN scrapers s ON s.id = r.scraper_id
		WHERE s.known_id = ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?
	`, scraperKnownID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, total, nil
}

// GetRunCount returns the total number of runs across all scrapers.
func (r *RunRepositoryImpl) GetRunCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	err := row.Scan(
		&run.ID, &run.ScraperID, &run.ScraperKnownID, &run.Status,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
