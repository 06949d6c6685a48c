package tasks

import (
	"context"
	"sync"
	"testing"

	"github.com/lysyi3m/scrape-comb/app/database"
	"github.com/lysyi3m/scrape-comb/app/detector"
	"github.com/lysyi3m/scrape-comb/app/scrapers"
	"github.com/lysyi3m/scrape-comb/app/tracker"
)

// MockScraperRepository implements a simple mock for testing
type MockScraperRepository struct {
	scrapers []database.Scraper
	err      error
}

var _ database.ScraperRepository = (*MockScraperRepository)(nil)

func (m *MockScraperRepository) RegisterScraper(scraper database.Scraper) error { return nil }

func (m *MockScraperRepository) RegisterManyScrapers(scrapers []database.Scraper) error { return nil }

func (m *MockScraperRepository) GetScraperByKnownID(knownID string) (*database.Scraper, error) {
	return nil, database.ErrScraperNotFound
}

func (m *MockScraperRepository) GetActiveScrapers() ([]database.Scraper, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.scrapers, nil
}

func (m *MockScraperRepository) ListScrapers(limit, offset int) ([]database.Scraper, int, error) {
	return m.scrapers, len(m.scrapers), nil
}

func (m *MockScraperRepository) SetScraperStatus(knownID string, status database.ScraperStatus) error {
	return nil
}

func (m *MockScraperRepository) GetScraperCount() (int, error) { return len(m.scrapers), nil }

// MockRunRepository implements a simple mock for testing
type MockRunRepository struct {
	mu       sync.Mutex
	saveErr  error
	saved    int
	statuses map[string]database.RunStatus
}

var _ database.RunRepository = (*MockRunRepository)(nil)

func (m *MockRunRepository) SaveRun(scraperKnownID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.saved++
	runID := "run-" + scraperKnownID
	if m.statuses == nil {
		m.statuses = make(map[string]database.RunStatus)
	}
	m.statuses[runID] = database.RunStatusRunning
	return runID, nil
}

func (m *MockRunRepository) UpdateRunStatus(runID string, status database.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.statuses[runID]
	if !ok {
		return database.ErrRunNotFound
	}
	if current.IsTerminal() {
		return database.ErrInvalidStateTransition
	}
	m.statuses[runID] = status
	return nil
}

func (m *MockRunRepository) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

func (m *MockRunRepository) statusOf(runID string) database.RunStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[runID]
}

func (m *MockRunRepository) GetRun(runID string) (*database.Run, error) { return nil, nil }

func (m *MockRunRepository) GetLatestRun(scraperKnownID string) (*database.Run, error) {
	return nil, nil
}

func (m *MockRunRepository) ListRuns(scraperKnownID string, limit, offset int) ([]database.Run, int, error) {
	return nil, 0, nil
}

func (m *MockRunRepository) GetRunCount() (int, error) { return m.saved, nil }

// MockJsonRepository implements a simple mock for testing
type MockJsonRepository struct {
	latestFingerprint string
	replaceCalls      int
}

var _ database.JsonRepository = (*MockJsonRepository)(nil)

func (m *MockJsonRepository) GetLatestFingerprint(scraperKnownID string) (string, error) {
	return m.latestFingerprint, nil
}

func (m *MockJsonRepository) GetLatestJson(scraperKnownID string) (*database.Json, error) {
	return nil, nil
}

func (m *MockJsonRepository) GetJsonByRunID(runID string) (*database.Json, error) { return nil, nil }

func (m *MockJsonRepository) ListJsons(scraperKnownID string, limit, offset int) ([]database.Json, int, error) {
	return nil, 0, nil
}

func (m *MockJsonRepository) SaveJson(scraperKnownID string, rec database.NewJson) (string, error) {
	return "json-id", nil
}

func (m *MockJsonRepository) UpdateJsonStatus(jsonID string, status database.JsonStatus) error {
	return nil
}

func (m *MockJsonRepository) ReplaceLatest(scraperKnownID string, rec database.NewJson) (string, error) {
	m.replaceCalls++
	m.latestFingerprint = rec.Fingerprint
	return "json-id", nil
}

// StubStrategy implements a controllable strategy for testing
type StubStrategy struct {
	knownID     string
	content     any
	scrapeErr   error
	validateErr error
	started     chan struct{}
	release     chan struct{}
}

var _ scrapers.Strategy = (*StubStrategy)(nil)

func (s *StubStrategy) KnownID() string { return s.knownID }

func (s *StubStrategy) Scrape(ctx context.Context) (any, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.scrapeErr != nil {
		return nil, s.scrapeErr
	}
	return s.content, nil
}

func (s *StubStrategy) Validate(raw any) error { return s.validateErr }

func testTaskScraper() database.Scraper {
	return database.Scraper{
		ID:       "row-id",
		KnownID:  "site",
		Name:     "Test Site",
		URL:      "https://example.com",
		Interval: 3600,
		Status:   database.ScraperStatusActive,
	}
}

func TestExecuteChangedContent(t *testing.T) {
	runRepo := &MockRunRepository{}
	jsonRepo := &MockJsonRepository{}
	strategy := &StubStrategy{knownID: "site", content: map[string]any{"v": 1}}

	task := NewScrapeTask(testTaskScraper(), strategy,
		tracker.New(runRepo), detector.NewEngine(jsonRepo, nil))
	task.Execute(context.Background())

	if runRepo.statusOf("run-site") != database.RunStatusSuccess {
		t.Errorf("Expected run status success, got '%s'", runRepo.statusOf("run-site"))
	}
	if jsonRepo.replaceCalls != 1 {
		t.Errorf("Expected 1 version replacement, got %d", jsonRepo.replaceCalls)
	}
}

func TestExecuteUnchangedContent(t *testing.T) {
	content := map[string]any{"v": 1}
	serialized, err := detector.Canonicalize(content)
	if err != nil {
		t.Fatal(err)
	}

	runRepo := &MockRunRepository{}
	jsonRepo := &MockJsonRepository{latestFingerprint: detector.Fingerprint(serialized)}
	strategy := &StubStrategy{knownID: "site", content: content}

	task := NewScrapeTask(testTaskScraper(), strategy,
		tracker.New(runRepo), detector.NewEngine(jsonRepo, nil))
	task.Execute(context.Background())

	if runRepo.statusOf("run-site") != database.RunStatusCached {
		t.Errorf("Expected run status cached, got '%s'", runRepo.statusOf("run-site"))
	}
	if jsonRepo.replaceCalls != 0 {
		t.Errorf("Expected no version replacement, got %d", jsonRepo.replaceCalls)
	}
}

func TestExecuteScrapeFailure(t *testing.T) {
	runRepo := &MockRunRepository{}
	jsonRepo := &MockJsonRepository{}
	strategy := &StubStrategy{
		knownID:   "site",
		scrapeErr: &scrapers.FetchError{URL: "https://example.com", Err: context.DeadlineExceeded},
	}

	task := NewScrapeTask(testTaskScraper(), strategy,
		tracker.New(runRepo), detector.NewEngine(jsonRepo, nil))
	task.Execute(context.Background())

	if runRepo.statusOf("run-site") != database.RunStatusFailure {
		t.Errorf("Expected run status failure, got '%s'", runRepo.statusOf("run-site"))
	}
	if jsonRepo.replaceCalls != 0 {
		t.Errorf("Expected nothing persisted on fetch failure, got %d replacements", jsonRepo.replaceCalls)
	}
}

func TestExecuteValidationFailure(t *testing.T) {
	runRepo := &MockRunRepository{}
	jsonRepo := &MockJsonRepository{}
	strategy := &StubStrategy{
		knownID:     "site",
		content:     map[string]any{},
		validateErr: &scrapers.ValidationError{Scraper: "site", Reason: "payload is empty"},
	}

	task := NewScrapeTask(testTaskScraper(), strategy,
		tracker.New(runRepo), detector.NewEngine(jsonRepo, nil))
	task.Execute(context.Background())

	if runRepo.statusOf("run-site") != database.RunStatusFailure {
		t.Errorf("Expected run status failure, got '%s'", runRepo.statusOf("run-site"))
	}
	if jsonRepo.replaceCalls != 0 {
		t.Errorf("Expected nothing persisted on validation failure, got %d replacements", jsonRepo.replaceCalls)
	}
}

func TestExecuteBeginFailure(t *testing.T) {
	runRepo := &MockRunRepository{saveErr: database.ErrScraperNotFound}
	jsonRepo := &MockJsonRepository{}
	strategy := &StubStrategy{knownID: "site", content: map[string]any{"v": 1}}

	task := NewScrapeTask(testTaskScraper(), strategy,
		tracker.New(runRepo), detector.NewEngine(jsonRepo, nil))
	task.Execute(context.Background())

	if runRepo.savedCount() != 0 {
		t.Errorf("Expected no run rows, got %d", runRepo.savedCount())
	}
	if jsonRepo.replaceCalls != 0 {
		t.Errorf("Expected nothing persisted when the run cannot open, got %d replacements", jsonRepo.replaceCalls)
	}
}
