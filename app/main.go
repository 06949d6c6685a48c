package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/scrape-comb/app/api"
	"github.com/lysyi3m/scrape-comb/app/cfg"
	"github.com/lysyi3m/scrape-comb/app/config"
	"github.com/lysyi3m/scrape-comb/app/database"
	"github.com/lysyi3m/scrape-comb/app/detector"
	"github.com/lysyi3m/scrape-comb/app/notifier"
	"github.com/lysyi3m/scrape-comb/app/scrapers"
	"github.com/lysyi3m/scrape-comb/app/tasks"
	"github.com/lysyi3m/scrape-comb/app/tracker"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Scrape Comb", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migrationVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", migrationVersion, "dirty", dirty)

	scraperRepo := database.NewScraperRepository(db)
	runRepo := database.NewRunRepository(db)
	jsonRepo := database.NewJsonRepository(db)

	// Load scraper definitions and seed registrations
	loader := config.NewLoader(appCfg.ScrapersDir)
	defs, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load scraper definitions", "dir", appCfg.ScrapersDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded scraper definitions", "count", len(defs), "dir", appCfg.ScrapersDir)

	if err := scraperRepo.RegisterManyScrapers(definitionsToScrapers(defs)); err != nil {
		// Scrapers already registered keep working; the failed one
		// surfaces through the logs and the run history.
		slog.Error("Failed to register scrapers", "error", err)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	registry := scrapers.NewRegistry()
	strategies, err := registry.ResolveAll(defs, httpClient, appCfg.UserAgent)
	if err != nil {
		slog.Error("Failed to resolve scraper strategies", "error", err)
		os.Exit(1)
	}

	// Change notifications (optional)
	var events chan detector.ChangeEvent
	var dispatcher *notifier.Dispatcher
	if appCfg.TelegramBotToken != "" {
		events = make(chan detector.ChangeEvent, 100)
		telegram := notifier.NewTelegram(httpClient, appCfg.TelegramBotToken, appCfg.TelegramChatID)
		dispatcher = notifier.NewDispatcher(events, telegram)
		dispatcher.Start()
		slog.Info("Change notifications enabled", "notifier", "telegram")
	} else {
		slog.Info("Change notifications disabled (TELEGRAM_BOT_TOKEN not set)")
	}

	engine := detector.NewEngine(jsonRepo, events)
	runTracker := tracker.New(runRepo)

	scheduler := tasks.NewScheduler(scraperRepo, strategies, runTracker, engine)
	if err := scheduler.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(scraperRepo, runRepo, jsonRepo, scheduler)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// In-flight runs finish before the scheduler returns.
	scheduler.Stop()

	if dispatcher != nil {
		dispatcher.Stop()
	}

	slog.Info("Shutdown complete")
}

func definitionsToScrapers(defs []config.Definition) []database.Scraper {
	result := make([]database.Scraper, 0, len(defs))
	for _, def := range defs {
		status := database.ScraperStatusInactive
		if def.Active {
			status = database.ScraperStatusActive
		}
		result = append(result, database.Scraper{
			KnownID:     def.KnownID,
			Name:        def.Name,
			Interval:    def.Interval,
			Status:      status,
			Notify:      def.Notify,
			Description: def.Description,
			URL:         def.URL,
			Widgets:     def.Widgets,
		})
	}
	return result
}
