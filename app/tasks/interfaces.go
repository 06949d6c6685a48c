package tasks

// SchedulerInterface defines the scheduling surface consumed by the
// main application and the administrative API: lifecycle of the whole
// scheduler plus per-job control keyed by scraper known ID.
type SchedulerInterface interface {
	Start() error
	Stop()
	AddJob(id string, intervalSeconds int, task TaskFunc)
	RemoveJob(id string)
	StopJob(id string) error
	StartJob(id string) error
	GetJob(id string) (JobInfo, bool)
}
