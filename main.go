package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"feed-report/config"
	"feed-report/database"
	"feed-report/providers/openrouter"
	"feed-report/services"
	"feed-report/storage"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database
	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to feed database.")

	logging.Info("Running database auto-migration...")
	if err := database.AutoMigrate(db); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Completion Provider
	completer, err := openrouter.NewClient(cfg, nil, logging.Named("openrouter"))
	if err != nil {
		logging.Fatal("Completion client creation failed", zap.Error(err))
	}
	logging.Info("Completion provider ready",
		zap.String("provider", completer.Name()),
		zap.String("model", completer.Model()))

	// Setup Services
	mixService := services.NewMixService(db, logging)
	reportService := services.NewReportService(db, logging)
	generator := services.NewReportGenerator(mixService, completer, logging)

	var exporter *services.ReportExporter
	if cfg.S3Enabled() {
		s3Client, err := storage.NewS3ClientFromConfig(context.Background(), cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		exporter = services.NewReportExporter(db, reportService, s3Client, storage.TargetFromConfig(cfg), logging)
		logging.Info("Report export enabled", zap.String("bucket", cfg.S3Bucket))
	} else {
		exporter = services.NewReportExporter(db, reportService, nil, storage.Target{}, logging)
		logging.Info("Report export disabled (S3 not configured)")
	}

	router := newRouter(&app{
		cfg:       cfg,
		db:        db,
		log:       logging,
		mixes:     mixService,
		reports:   reportService,
		generator: generator,
		exporter:  exporter,
	})

	// Setup Cron
	var cronScheduler *cron.Cron
	if cfg.ArchiveCronSchedule != "" {
		cronScheduler = cron.New()
		_, err := cronScheduler.AddFunc(cfg.ArchiveCronSchedule, func() {
			logging.Info("Running scheduled report archive job...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			count, err := exporter.ArchivePending(ctx)
			if err != nil {
				logging.Error("Archive job failed", zap.Error(err))
				return
			}
			reportsExportedCounter.Add(float64(count))
			logging.Info("Archive job completed", zap.Int("archived_reports", count))
		})
		if err != nil {
			logging.Fatal("Invalid archive cron schedule", zap.String("schedule", cfg.ArchiveCronSchedule), zap.Error(err))
		}
		cronScheduler.Start()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Report-Generierung wartet synchron auf das Modell.
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh

	logging.Info("Shutting down server")
	if cronScheduler != nil {
		<-cronScheduler.Stop().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
