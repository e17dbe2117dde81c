package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pawtrack/walks-backend-go/internal/api"
	"github.com/pawtrack/walks-backend-go/internal/config"
	"github.com/pawtrack/walks-backend-go/internal/database"
	"github.com/pawtrack/walks-backend-go/internal/handler"
	"github.com/pawtrack/walks-backend-go/internal/ingest"
	"github.com/pawtrack/walks-backend-go/internal/metrics"
	"github.com/pawtrack/walks-backend-go/internal/repository"
	"github.com/pawtrack/walks-backend-go/internal/service"
	"github.com/pawtrack/walks-backend-go/internal/syncer"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store := repository.NewStore(db)
	recorder := ingest.NewRecorder(cfg, store, m)
	walkService := service.NewWalkService(store, cfg.Segmenter)

	remote := syncer.NewHTTPClient(cfg.RemoteURL, cfg.DeviceToken, cfg.DeviceID)
	engine := syncer.NewEngine(cfg.Sync, store.Queue, remote, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine.Start(ctx)
	defer engine.Stop()

	// Anything left queued from a previous run goes up as soon as we can
	engine.Trigger()

	router := api.SetupRouter(api.Handlers{
		Walks:  handler.NewWalkHandler(recorder, walkService),
		Events: handler.NewEventHandler(walkService),
		Export: handler.NewExportHandler(walkService),
		Sync:   handler.NewSyncHandler(engine),
	}, registry)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
