package database

import (
	"time"
)

type ScraperStatus string

const (
	ScraperStatusActive   ScraperStatus = "active"
	ScraperStatusInactive ScraperStatus = "inactive"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusCached  RunStatus = "cached"
	RunStatusFailure RunStatus = "failure"
)

// IsTerminal reports whether the status is one a run can never leave.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSuccess || s == RunStatusCached || s == RunStatusFailure
}

type JsonStatus string

const (
	JsonStatusLatest JsonStatus = "latest"
	JsonStatusBusted JsonStatus = "busted"
)

// Scraper is a registered, named data source. KnownID is the stable
// human-assigned identifier, independent of the database row ID.
type Scraper struct {
	ID          string // Database UUID
	KnownID     string
	Name        string
	Interval    int // seconds
	Status      ScraperStatus
	Notify      bool // whether content changes trigger a notification
	Description string
	URL         string
	Widgets     []string // downstream consumers
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Run is one execution attempt of a scraper. Created in status "running",
// it transitions exactly once to success, cached or failure.
type Run struct {
	ID             string
	ScraperID      string
	ScraperKnownID string
	Status         RunStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Json is one persisted content version for a scraper. Content is
// immutable after creation; only the status field is ever updated.
type Json struct {
	ID             string
	ScraperID      string
	ScraperKnownID string
	RunID          string
	Content        string
	Fingerprint    string
	Status         JsonStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewJson carries the fields of a Json row to be inserted. The scraper
// reference and the version status are supplied by the repository.
type NewJson struct {
	RunID       string
	Content     string
	Fingerprint string
}
