package database

import (
	"errors"
)

var (
	// ErrScraperNotFound is returned when an operation references a
	// known ID that has never been registered.
	ErrScraperNotFound = errors.New("scraper not found")

	// ErrRunNotFound is returned when an operation references a run
	// that does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidStateTransition is returned when a run that already
	// reached a terminal status is completed a second time.
	ErrInvalidStateTransition = errors.New("run already in terminal status")
)

type ScraperRepository interface {
	RegisterScraper(scraper Scraper) error
	RegisterManyScrapers(scrapers []Scraper) error
	GetScraperByKnownID(knownID string) (*Scraper, error)
	GetActiveScrapers() ([]Scraper, error)
	ListScrapers(limit, offset int) ([]Scraper, int, error)
	SetScraperStatus(knownID string, status ScraperStatus) error
	GetScraperCount() (int, error)
}

type RunRepository interface {
	SaveRun(scraperKnownID string) (string, error)
	UpdateRunStatus(runID string, status RunStatus) error
	GetRun(runID string) (*Run, error)
	GetLatestRun(scraperKnownID string) (*Run, error)
	ListRuns(scraperKnownID string, limit, offset int) ([]Run, int, error)
	GetRunCount() (int, error)
}

type JsonRepository interface {
	GetLatestFingerprint(scraperKnownID string) (string, error)
	GetLatestJson(scraperKnownID string) (*Json, error)
	GetJsonByRunID(runID string) (*Json, error)
	ListJsons(scraperKnownID string, limit, offset int) ([]Json, int, error)
	SaveJson(scraperKnownID string, rec NewJson) (string, error)
	UpdateJsonStatus(jsonID string, status JsonStatus) error

	// ReplaceLatest flips the current latest version (if any) to busted
	// and inserts rec as the new latest, in a single transaction.
	ReplaceLatest(scraperKnownID string, rec NewJson) (string, error)
}
