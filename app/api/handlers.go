package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/scrape-comb/app/cfg"
	"github.com/lysyi3m/scrape-comb/app/database"
	"github.com/lysyi3m/scrape-comb/app/tasks"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if scraperCount, err := h.scraperRepo.GetScraperCount(); err == nil {
		health["scrapers"] = scraperCount
	}
	if runCount, err := h.runRepo.GetRunCount(); err == nil {
		health["runs"] = runCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListScrapers(c *gin.Context) {
	limit, offset, page := pagination(c)

	scrapers, total, err := h.scraperRepo.ListScrapers(limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "list_scrapers", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	items := make([]gin.H, 0, len(scrapers))
	for _, scraper := range scrapers {
		items = append(items, scraperResponse(scraper, h.scheduler))
	}

	c.JSON(http.StatusOK, gin.H{
		"scrapers": items,
		"total":    total,
		"page":     page,
		"per_page": limit,
	})
}

func (h *Handler) GetScraper(c *gin.Context) {
	scraper, ok := h.lookupScraper(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, scraperResponse(*scraper, h.scheduler))
}

func (h *Handler) ListRuns(c *gin.Context) {
	scraper, ok := h.lookupScraper(c)
	if !ok {
		return
	}

	limit, offset, page := pagination(c)

	runs, total, err := h.runRepo.ListRuns(scraper.KnownID, limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "scraper", scraper.KnownID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	items := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		items = append(items, gin.H{
			"id":         run.ID,
			"scraper":    run.ScraperKnownID,
			"status":     run.Status,
			"created_at": run.CreatedAt,
			"updated_at": run.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":     items,
		"total":    total,
		"page":     page,
		"per_page": limit,
	})
}

func (h *Handler) GetLatestJson(c *gin.Context) {
	scraper, ok := h.lookupScraper(c)
	if !ok {
		return
	}

	record, err := h.jsonRepo.GetLatestJson(scraper.KnownID)
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_json", "scraper", scraper.KnownID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No content persisted yet"})
		return
	}

	c.JSON(http.StatusOK, jsonResponse(*record))
}

func (h *Handler) ListJsons(c *gin.Context) {
	scraper, ok := h.lookupScraper(c)
	if !ok {
		return
	}

	limit, offset, page := pagination(c)

	records, total, err := h.jsonRepo.ListJsons(scraper.KnownID, limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "list_jsons", "scraper", scraper.KnownID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, jsonResponse(record))
	}

	c.JSON(http.StatusOK, gin.H{
		"versions": items,
		"total":    total,
		"page":     page,
		"per_page": limit,
	})
}

func (h *Handler) GetJsonByRun(c *gin.Context) {
	runID := c.Param("id")

	record, err := h.jsonRepo.GetJsonByRunID(runID)
	if err != nil {
		slog.Error("Database error", "operation", "get_json_by_run", "run_id", runID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run produced no content"})
		return
	}

	c.JSON(http.StatusOK, jsonResponse(*record))
}

func (h *Handler) GetJob(c *gin.Context) {
	id := c.Param("id")

	info, ok := h.scheduler.GetJob(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       info.ID,
		"interval": info.Interval.String(),
		"stopped":  info.Stopped,
	})
}

func (h *Handler) StopJob(c *gin.Context) {
	id := c.Param("id")

	if err := h.scheduler.StopJob(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "stopped": true})
}

func (h *Handler) StartJob(c *gin.Context) {
	id := c.Param("id")

	if err := h.scheduler.StartJob(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "stopped": false})
}

func (h *Handler) RemoveJob(c *gin.Context) {
	id := c.Param("id")

	h.scheduler.RemoveJob(id)
	c.Status(http.StatusNoContent)
}

func (h *Handler) lookupScraper(c *gin.Context) (*database.Scraper, bool) {
	knownID := c.Param("id")

	scraper, err := h.scraperRepo.GetScraperByKnownID(knownID)
	if errors.Is(err, database.ErrScraperNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scraper not found"})
		return nil, false
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_scraper", "scraper", knownID, "error", err)
		c.Status(http.StatusInternalServerError)
		return nil, false
	}

	return scraper, true
}

func scraperResponse(scraper database.Scraper, scheduler tasks.SchedulerInterface) gin.H {
	resp := gin.H{
		"known_id":    scraper.KnownID,
		"name":        scraper.Name,
		"status":      scraper.Status,
		"interval":    (time.Duration(scraper.Interval) * time.Second).String(),
		"notify":      scraper.Notify,
		"description": scraper.Description,
		"url":         scraper.URL,
		"widgets":     scraper.Widgets,
		"created_at":  scraper.CreatedAt,
		"updated_at":  scraper.UpdatedAt,
	}

	if info, ok := scheduler.GetJob(scraper.KnownID); ok {
		resp["job"] = gin.H{"scheduled": true, "stopped": info.Stopped}
	} else {
		resp["job"] = gin.H{"scheduled": false}
	}

	return resp
}

func pagination(c *gin.Context) (limit, offset, page int) {
	page = 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}

	limit = 20
	if pp, err := strconv.Atoi(c.Query("per_page")); err == nil && pp > 0 && pp <= 100 {
		limit = pp
	}

	return limit, (page - 1) * limit, page
}

func jsonResponse(record database.Json) gin.H {
	return gin.H{
		"id":          record.ID,
		"scraper":     record.ScraperKnownID,
		"run_id":      record.RunID,
		"status":      record.Status,
		"fingerprint": record.Fingerprint,
		"content":     json.RawMessage(record.Content),
		"created_at":  record.CreatedAt,
	}
}
