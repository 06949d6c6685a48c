package detector

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/scrape-comb/app/database"
)

// Outcome is the result of one change detection.
type Outcome int

const (
	// OutcomeInvalid means the content failed validation or the
	// detection could not complete; nothing was persisted.
	OutcomeInvalid Outcome = iota
	// OutcomeChanged means a new latest version was persisted.
	OutcomeChanged
	// OutcomeUnchanged means the fingerprint matched the stored one.
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeChanged:
		return "changed"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "invalid"
	}
}

// Validator checks raw content against the expected shape. Satisfied by
// every scraper strategy.
type Validator interface {
	Validate(raw any) error
}

// ChangeEvent is emitted on the events channel when a scraper with the
// notify flag set produces new content.
type ChangeEvent struct {
	ScraperKnownID string
	ScraperName    string
	URL            string
	RunID          string
	Fingerprint    string
}

// Engine compares fresh content against the stored latest fingerprint
// and mutates the version chain on change. Change events are published
// after the new version is committed; publication is non-blocking and
// never affects the detection result.
type Engine struct {
	jsonRepo database.JsonRepository
	events   chan<- ChangeEvent
}

func NewEngine(jsonRepo database.JsonRepository, events chan<- ChangeEvent) *Engine {
	return &Engine{jsonRepo: jsonRepo, events: events}
}

// Process validates, fingerprints and compares raw content for one run.
// On validation failure it returns OutcomeInvalid and the validation
// error without persisting anything; store errors propagate unwrapped.
// A scraper with no prior version always yields OutcomeChanged.
func (e *Engine) Process(ctx context.Context, scraper database.Scraper, runID string, raw any, validator Validator) (Outcome, error) {
	select {
	case <-ctx.Done():
		return OutcomeInvalid, ctx.Err()
	default:
	}

	if err := validator.Validate(raw); err != nil {
		return OutcomeInvalid, err
	}

	serialized, err := Canonicalize(raw)
	if err != nil {
		return OutcomeInvalid, err
	}
	fingerprint := Fingerprint(serialized)

	latest, err := e.jsonRepo.GetLatestFingerprint(scraper.KnownID)
	if err != nil {
		return OutcomeInvalid, err
	}

	if latest == fingerprint {
		return OutcomeUnchanged, nil
	}

	if _, err := e.jsonRepo.ReplaceLatest(scraper.KnownID, database.NewJson{
		RunID:       runID,
		Content:     string(serialized),
		Fingerprint: fingerprint,
	}); err != nil {
		return OutcomeInvalid, err
	}

	e.publish(scraper, runID, fingerprint)

	return OutcomeChanged, nil
}

func (e *Engine) publish(scraper database.Scraper, runID, fingerprint string) {
	if e.events == nil || !scraper.Notify {
		return
	}

	event := ChangeEvent{
		ScraperKnownID: scraper.KnownID,
		ScraperName:    scraper.Name,
		URL:            scraper.URL,
		RunID:          runID,
		Fingerprint:    fingerprint,
	}

	select {
	case e.events <- event:
	default:
		slog.Warn("Change event dropped, queue is full", "scraper", scraper.KnownID, "run_id", runID)
	}
}
