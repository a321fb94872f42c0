package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vidlingo/auth"
	"vidlingo/config"
	"vidlingo/handlers/api"
	"vidlingo/logger"
	"vidlingo/pipeline"
	"vidlingo/repository/sqlite"
	"vidlingo/services/deck"
	"vidlingo/services/subtitles"
	"vidlingo/services/tasks"
	"vidlingo/services/videos"
	"vidlingo/storage"
	"vidlingo/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := sqlite.InitDB(cfg.Database.Path, sqlite.Config{
		MaxConnections:     cfg.Database.MaxConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	cardRepo := sqlite.NewCardRepository(db)
	videoRepo := sqlite.NewVideoRepository(db)

	validator := validation.NewValidator(cfg)

	// Deck store: load persisted cards, seed the demo deck on first run.
	deckService := deck.NewService(cardRepo, appLogger, deck.Config{
		TodayTarget: cfg.Deck.TodayTarget,
	})
	if err := deckService.Load(context.Background()); err != nil {
		log.Fatalf("Failed to load deck: %v", err)
	}
	if err := deckService.Seed(context.Background()); err != nil {
		appLogger.WithError(err).Warn("Failed to seed demo deck")
	}

	videoService := videos.NewService(videoRepo, validator, appLogger, videos.Config{
		StoreDir: cfg.VideoStoreDir,
	})

	subtitleService := subtitles.NewService(appLogger)
	taskStore := tasks.NewStore(appLogger)

	pipelineClient := pipeline.NewClient(cfg.Pipeline.BaseURL, cfg.Pipeline.RequestTimeout)
	bridge := pipeline.NewBridge(pipelineClient, subtitleService, taskStore, appLogger, pipeline.Config{
		PollInterval:   cfg.Pipeline.PollInterval,
		ProcessTimeout: cfg.Pipeline.ProcessTimeout,
		FromLang:       cfg.Pipeline.FromLang,
		ToLang:         cfg.Pipeline.ToLang,
	})

	authClient := auth.NewClient(cfg, appLogger)

	var backupClient *storage.SpacesClient
	if cfg.Backup.Enabled {
		backupClient, err = storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
			Region:    cfg.Backup.Region,
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
		})
		if err != nil {
			appLogger.WithError(err).Warn("Remote deck backups disabled")
		}
	}

	server := api.NewServer(cfg,
		api.WithLogger(appLogger),
		api.WithServices(api.Services{
			Deck:      deckService,
			Videos:    videoService,
			Subtitles: subtitleService,
			Tasks:     taskStore,
			Bridge:    bridge,
			Auth:      authClient,
			Backup:    backupClient,
		}),
	)

	// Graceful shutdown setup
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		appLogger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			appLogger.WithError(err).Error("Server shutdown error")
		}
		if err := db.Close(); err != nil {
			appLogger.WithError(err).Error("Database shutdown error")
		}
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
