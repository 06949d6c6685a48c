package api

import (
	"github.com/lysyi3m/scrape-comb/app/database"
	"github.com/lysyi3m/scrape-comb/app/tasks"
)

type Handler struct {
	scraperRepo database.ScraperRepository
	runRepo     database.RunRepository
	jsonRepo    database.JsonRepository
	scheduler   tasks.SchedulerInterface
}

func NewHandler(scraperRepo database.ScraperRepository, runRepo database.RunRepository,
	jsonRepo database.JsonRepository, scheduler tasks.SchedulerInterface) *Handler {
	return &Handler{
		scraperRepo: scraperRepo,
		runRepo:     runRepo,
		jsonRepo:    jsonRepo,
		scheduler:   scheduler,
	}
}
