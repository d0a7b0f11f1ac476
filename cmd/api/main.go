package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/criszst/neopdf-sub000/internal/config"
	"github.com/criszst/neopdf-sub000/internal/database"
	"github.com/criszst/neopdf-sub000/internal/database/migration"
	handlers "github.com/criszst/neopdf-sub000/internal/http/handler"
	"github.com/criszst/neopdf-sub000/internal/http/middleware"
	"github.com/criszst/neopdf-sub000/internal/otel"
	"github.com/criszst/neopdf-sub000/internal/repository/postgres"
	"github.com/criszst/neopdf-sub000/internal/service"
	"github.com/criszst/neopdf-sub000/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	ctx := context.Background()

	// Tracing first so the DB driver wrapper picks up the provider
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// PostgreSQL connection (pooled via database/sql, traced via otelsql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host, cfg.Upload.DedupScope); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	actRepo := postgres.NewActivityPostgres(db)

	recorder := service.NewActivityRecorder(actRepo, docRepo)
	dedup := service.NewDeduplicationService(objStore, docRepo, cfg.Upload.DedupScope)
	pipeline := service.NewUploadPipeline(dedup, recorder, cfg.Upload)
	docSvc := service.NewDocumentService(objStore, docRepo, recorder,
		time.Duration(cfg.Upload.PresignExpirySec)*time.Second)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxBytes) + 1<<20, // multipart overhead headroom
	})

	// Global middleware: request IDs, JSON request logs, traces, metrics
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(promRegistry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, pipeline, docSvc, recorder)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
