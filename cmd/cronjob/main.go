package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/lib/pq"

	"rcca-backend/internal/cache"
	"rcca-backend/internal/config"
	"rcca-backend/internal/jobs"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/metrics"
	"rcca-backend/internal/repository/postgres"
	"rcca-backend/internal/scheduler"
	"rcca-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit ("+strings.Join(jobs.Names(), ", ")+")")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RCCA Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)
	draftCache, closeCache, err := cache.Open(context.Background(), cfg.Cache)
	if err != nil {
		logger.Error("Failed to initialize draft cache", "error", err, "backend", cfg.Cache.Backend)
		log.Fatalf("Failed to initialize draft cache: %v", err)
	}
	defer closeCache()

	// Initialize Services
	m := metrics.New()
	jobServices := &jobs.Services{
		Sync: service.NewSyncService(store.RecordRepository, draftCache, m),
		Dashboard: service.NewDashboardService(store.RecordRepository, draftCache, store.UserRepository, m, service.DashboardOptions{
			Categories:           cfg.Workflow.Categories,
			DefaultFactory:       cfg.Workflow.DefaultFactory,
			ResubmittedAsPending: cfg.CountResubmittedAsPending(),
		}),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg, m)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := jobRunner.Run(*runOnce); err != nil {
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			fmt.Printf("Available jobs:\n")
			for _, name := range jobs.Names() {
				fmt.Printf("  - %s\n", name)
			}
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}
