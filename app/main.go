package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slavikmr/feedpub/app/ai"
	"github.com/slavikmr/feedpub/app/api"
	"github.com/slavikmr/feedpub/app/cfg"
	"github.com/slavikmr/feedpub/app/config"
	"github.com/slavikmr/feedpub/app/database"
	"github.com/slavikmr/feedpub/app/extract"
	"github.com/slavikmr/feedpub/app/feed"
	"github.com/slavikmr/feedpub/app/fetcher"
	"github.com/slavikmr/feedpub/app/pipeline"
	"github.com/slavikmr/feedpub/app/publish"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
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

	slog.Info("Starting FeedPub server", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	slog.Info("Loading destination configurations", "dir", appCfg.DestinationsDir)
	destinations, err := config.NewLoader(appCfg.DestinationsDir).LoadAll()
	if err != nil {
		slog.Error("Failed to load destination configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Destination configurations loaded", "count", destinations.Count())
	for _, dest := range destinations.All() {
		slog.Info("Destination registered", "name", dest.Name, "platform", dest.Platform, "priority", dest.Priority)
	}

	feedRepo := database.NewFeedRepository(db)
	seenRepo := database.NewSeenURLRepository(db)
	resultRepo := database.NewResultRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}
	contentFetcher := fetcher.NewFetcher(&http.Client{}, appCfg.UserAgent)
	aiClient := ai.NewClient(httpClient, appCfg.AIEndpoint, appCfg.AIAccessKey,
		appCfg.AIModel, appCfg.AIMaxTokens, appCfg.AITemperature)
	dispatcher := publish.NewDispatcher(httpClient)

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Parser:       feed.NewParser(),
		Fetcher:      contentFetcher,
		Extractor:    extract.NewExtractor(),
		Rewriter:     aiClient,
		Dispatcher:   dispatcher,
		Destinations: destinations,
		Feeds:        feedRepo,
		SeenURLs:     seenRepo,
		Results:      resultRepo,
		WorkerCount:  appCfg.WorkerCount,
	})

	apiHandler := api.NewHandler(orchestrator, dispatcher, destinations,
		feedRepo, seenRepo, resultRepo, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Feed runs publish inline before responding
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("FeedPub server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("FeedPub server shutdown complete")
}
