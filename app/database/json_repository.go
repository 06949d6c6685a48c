package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JsonRepositoryImpl handles database operations for versioned content
type JsonRepositoryImpl struct {
	db *DB
}

var _ JsonRepository = (*JsonRepositoryImpl)(nil)

func NewJsonRepository(db *DB) *JsonRepositoryImpl {
	return &JsonRepositoryImpl{db: db}
}

// GetLatestFingerprint returns the fingerprint of the latest version for
// a scraper, or an empty string when no version exists yet.
func (r *JsonRepositoryImpl) GetLatestFingerprint(scraperKnownID string) (string, error) {
	var fingerprint string
	err := r.db.QueryRow(`
		SELECT j.fingerprint
		FROM json_versions j
		JOIN scrapers s ON s.id = j.scraper_id
		WHERE s.known_id = ? AND j.status = ?
	`, scraperKnownID, JsonStatusLatest).Scan(&fingerprint)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest fingerprint: %w", err)
	}

	return fingerprint, nil
}

// GetLatestJson returns the latest version for a scraper, or nil when no
// version exists yet.
func (r *JsonRepositoryImpl) GetLatestJson(scraperKnownID string) (*Json, error) {
	row := r.db.QueryRow(`
		SELECT j.id, j.scraper_id, s.known_id, j.run_id, j.content, j.fingerprint, j.status, j.created_at, j.updated_at
		FROM json_versions j
		JOIN scrapers s ON s.id = j.scraper_id
		WHERE s.known_id = ? AND j.status = ?
	`, scraperKnownID, JsonStatusLatest)

	record, err := scanJson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest json: %w", err)
	}

	return record, nil
}

// GetJsonByRunID returns the version produced by a run, or nil when the
// run produced none (cached or failed runs).
func (r *JsonRepositoryImpl) GetJsonByRunID(runID string) (*Json, error) {
	row := r.db.QueryRow(`
		SELECT j.id, j.scraper_id, s.known_id, j.run_id, j.content, j.fingerprint, j.status, j.created_at, j.updated_at
		FROM json_versions j
		JOIN scrapers s ON s.id = j.scraper_id
		WHERE j.run_id = ?
	`, runID)

	record, err := scanJson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get json by run ID: %w", err)
	}

	return record, nil
}

// ListJsons returns a page of versions for a scraper, newest first, plus
// the total count.
func (r *JsonRepositoryImpl) ListJsons(scraperKnownID string, limit, offset int) ([]Json, int, error) {
	var total int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM json_versions j
		JOIN scrapers s ON s.id = j.scraper_id
		WHERE s.known_id = ?
	`, scraperKnownID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count json versions: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT j.id, j.scraper_id, s.known_id, j.run_id, j.content, j.fingerprint, j.status, j.created_at, j.updated_at
		FROM json_versions j
		JOIN scrapers s ON s.id = j.scraper_id
		WHERE s.known_id = ?
		ORDER BY j.created_at DESC, j.id DESC
		LIMIT ? OFFSET ?
	`, scraperKnownID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list json versions: %w", err)
	}
	defer rows.Close()

	var records []Json
	for rows.Next() {
		record, err := scanJson(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan json row: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating json rows: %w", err)
	}

	return records, total, nil
}

// SaveJson inserts a new version with status "latest" without touching
// the previous one. Use ReplaceLatest on the detection path; SaveJson
// exists for the first version and for tests.
func (r *JsonRepositoryImpl) SaveJson(scraperKnownID string, rec NewJson) (string, error) {
	jsonID := uuid.NewString()
	now := time.Now().UTC()

	res, err := r.db.Exec(`
		INSERT INTO json_versions (id, scraper_id, run_id, content, fingerprint, status, created_at, updated_at)
		SELECT ?, id, ?, ?, ?, ?, ?, ?
		FROM scrapers
		WHERE known_id = ?
	`, jsonID, rec.RunID, rec.Content, rec.Fingerprint, JsonStatusLatest, now, now, scraperKnownID)
	if err != nil {
		return "", fmt.Errorf("failed to save json: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to check saved json: %w", err)
	}
	if affected == 0 {
		return "", fmt.Errorf("%w: %s", ErrScraperNotFound, scraperKnownID)
	}

	return jsonID, nil
}

// UpdateJsonStatus changes the version status of a single record.
// Content is immutable; the status is the only mutable field.
func (r *JsonRepositoryImpl) UpdateJsonStatus(jsonID string, status JsonStatus) error {
	res, err := r.db.Exec(`
		UPDATE json_versions
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, status, time.Now().UTC(), jsonID)
	if err != nil {
		return fmt.Errorf("failed to update json status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check json status update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("json version not found: %s", jsonID)
	}

	return nil
}

// ReplaceLatest busts the current latest version (if any) and inserts
// rec as the new latest in one transaction, so a reader never observes
// zero or two latest rows.
func (r *JsonRepositoryImpl) ReplaceLatest(scraperKnownID string, rec NewJson) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var scraperID string
	err = tx.QueryRow("SELECT id FROM scrapers WHERE known_id = ?", scraperKnownID).Scan(&scraperID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", ErrScraperNotFound, scraperKnownID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve scraper: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(`
		UPDATE json_versions
		SET status = ?, updated_at = ?
		WHERE scraper_id = ? AND status = ?
	`, JsonStatusBusted, now, scraperID, JsonStatusLatest)
	if err != nil {
		return "", fmt.Errorf("failed to bust previous version: %w", err)
	}

	jsonID := uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO json_versions (id, scraper_id, run_id, content, fingerprint, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, jsonID, scraperID, rec.RunID, rec.Content, rec.Fingerprint, JsonStatusLatest, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert new version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit version replacement: %w", err)
	}

	return jsonID, nil
}

func scanJson(row rowScanner) (*Json, error) {
	var record Json
	err := row.Scan(
		&record.ID, &record.ScraperID, &record.ScraperKnownID, &record.RunID,
		&record.Content, &record.Fingerprint, &record.Status,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
