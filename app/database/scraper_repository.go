package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScraperRepositoryImpl handles database operations for registered scrapers
type ScraperRepositoryImpl struct {
	db *DB
}

var _ ScraperRepository = (*ScraperRepositoryImpl)(nil)

func NewScraperRepository(db *DB) *ScraperRepositoryImpl {
	return &ScraperRepositoryImpl{db: db}
}

// RegisterScraper inserts a scraper or updates its definition when the
// known ID is already present. Runs and versions referencing the scraper
// are never touched.
func (r *ScraperRepositoryImpl) RegisterScraper(scraper Scraper) error {
	widgets, err := json.Marshal(scraper.Widgets)
	if err != nil {
		return fmt.Errorf("failed to encode widgets: %w", err)
	}

	if scraper.Interval <= 0 {
		scraper.Interval = 86400
	}
	if scraper.Status == "" {
		scraper.Status = ScraperStatusInactive
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(`
		INSERT INTO scrapers (id, known_id, name, interval, status, notify, description, url, widgets, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (known_id) DO UPDATE SET
			name = excluded.name,
			interval = excluded.interval,
			status = excluded.status,
			notify = excluded.notify,
			description = excluded.description,
			url = excluded.url,
			widgets = excluded.widgets,
			updated_at = excluded.updated_at
	`, uuid.NewString(), scraper.KnownID, scraper.Name, scraper.Interval, scraper.Status,
		scraper.Notify, scraper.Description, scraper.URL, string(widgets), now, now)

	if err != nil {
		return fmt.Errorf("failed to register scraper: %w", err)
	}

	return nil
}

// RegisterManyScrapers registers all given scrapers. Seed-time only.
func (r *ScraperRepositoryImpl) RegisterManyScrapers(scrapers []Scraper) error {
	for _, scraper := range scrapers {
		if err := r.RegisterScraper(scraper); err != nil {
			return fmt.Errorf("failed to register scraper %q: %w", scraper.KnownID, err)
		}
	}
	return nil
}

// GetScraperByKnownID retrieves a scraper by its stable known ID.
// Returns ErrScraperNotFound when the known ID is not registered.
func (r *ScraperRepositoryImpl) GetScraperByKnownID(knownID string) (*Scraper, error) {
	row := r.db.QueryRow(`
		SELECT id, known_id, name, interval, status, notify, description, url, widgets, created_at, updated_at
		FROM scrapers
		WHERE known_id = ?
	`, knownID)

	scraper, err := scanScraper(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrScraperNotFound, knownID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scraper by known ID: %w", err)
	}

	return scraper, nil
}

// GetActiveScrapers returns all scrapers in status "active".
func (r *ScraperRepositoryImpl) GetActiveScrapers() ([]Scraper, error) {
	rows, err := r.db.Query(`
		SELECT id, known_id, name, interval, status, notify, description, url, widgets, created_at, updated_at
		FROM scrapers
		WHERE status = ?
		ORDER BY known_id
	`, ScraperStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get active scrapers: %w", err)
	}
	defer rows.Close()

	return collectScrapers(rows)
}

// ListScrapers returns a page of scrapers plus the total count.
func (r *ScraperRepositoryImpl) ListScrapers(limit, offset int) ([]Scraper, int, error) {
	total, err := r.GetScraperCount()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(`
		SELECT id, known_id, name, interval, status, notify, description, url, widgets, created_at, updated_at
		FROM scrapers
		ORDER BY known_id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scrapers: %w", err)
	}
	defer rows.Close()

	scrapers, err := collectScrapers(rows)
	if err != nil {
		return nil, 0, err
	}

	return scrapers, total, nil
}

// SetScraperStatus activates or retires a scraper without touching its
// run or version history.
func (r *ScraperRepositoryImpl) SetScraperStatus(knownID string, status ScraperStatus) error {
	res, err := r.db.Exec(`
		UPDATE scrapers
		SET status = ?, updated_at = ?
		WHERE known_id = ?
	`, status, time.Now().UTC(), knownID)
	if err != nil {
		return fmt.Errorf("failed to set scraper status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check scraper status update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrScraperNotFound, knownID)
	}

	return nil
}

// GetScraperCount returns the total number of registered scrapers.
func (r *ScraperRepositoryImpl) GetScraperCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM scrapers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get scraper count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScraper(row rowScanner) (*Scraper, error) {
	var scraper Scraper
	var widgets string

	err := row.Scan(
		&scraper.ID, &scraper.KnownID, &scraper.Name, &scraper.Interval, &scraper.Status,
		&scraper.Notify, &scraper.Description, &scraper.URL, &widgets,
		&scraper.CreatedAt, &scraper.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(widgets), &scraper.Widgets); err != nil {
		return nil, fmt.Errorf("failed to decode widgets: %w", err)
	}

	return &scraper, nil
}

func collectScrapers(rows *sql.Rows) ([]Scraper, error) {
	var scrapers []Scraper
	for rows.Next() {
		scraper, err := scanScraper(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scraper row: %w", err)
		}
		scrapers = append(scrapers, *scraper)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scraper rows: %w", err)
	}

	return scrapers, nil
}
