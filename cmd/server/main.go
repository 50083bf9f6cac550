package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "rcca-backend/internal/api/http"
	"rcca-backend/internal/cache"
	"rcca-backend/internal/config"
	"rcca-backend/internal/events"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/metrics"
	"rcca-backend/internal/permission"
	"rcca-backend/internal/repository/postgres"
	"rcca-backend/internal/security"
	"rcca-backend/internal/service"
	"rcca-backend/internal/workflow"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply database migrations before serving")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RCCA Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Workflow configuration", "grace_period", cfg.GracePeriod(), "resubmitted_as_pending", cfg.CountResubmittedAsPending(), "factories", cfg.Workflow.Factories)

	// Initialize Database
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

	if *migrate {
		if err := postgres.Migrate(db); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Database migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Repositories
	store := postgres.NewStore(db)
	draftCache, closeCache, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		logger.Error("Failed to initialize draft cache", "error", err, "backend", cfg.Cache.Backend)
		log.Fatalf("Failed to initialize draft cache: %v", err)
	}
	defer closeCache()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize Workflow
	m := metrics.New()
	bus := events.NewBus()
	perms := permission.NewEvaluator(cfg.GracePeriod())
	engine := workflow.NewEngine(perms)

	// Initialize Notification Sinks
	sinks := []service.NotificationSink{service.NewInAppSink(store.NotificationRepository)}
	if cfg.SendGrid.APIKey != "" {
		sinks = append(sinks, service.NewEmailSink(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName))
		logger.Info("Email notifications enabled", "from", cfg.SendGrid.FromEmail)
	}
	if cfg.Firebase.CredentialsFile != "" {
		push, err := service.NewPushSink(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize push notifications", "error", err)
			log.Fatalf("Failed to initialize push notifications: %v", err)
		}
		sinks = append(sinks, push)
		logger.Info("Push notifications enabled")
	}
	dispatcher := service.NewDispatcher(store.UserRepository, m, sinks...)
	dispatcher.Register(bus)

	// Initialize Services
	rccaSvc := service.NewRCCAService(store.RecordRepository, draftCache, store.StatusHistoryRepository, engine, perms, bus, m)
	dashboardSvc := service.NewDashboardService(store.RecordRepository, draftCache, store.UserRepository, m, service.DashboardOptions{
		Categories:           cfg.Workflow.Categories,
		DefaultFactory:       cfg.Workflow.DefaultFactory,
		ResubmittedAsPending: cfg.CountResubmittedAsPending(),
	})
	noteSvc := service.NewNotificationService(store.NotificationRepository)

	router := httpapi.NewRouter(httpapi.Services{
		RCCA:          rccaSvc,
		Dashboard:     dashboardSvc,
		Notifications: noteSvc,
		Tokens:        tokenManager,
		Metrics:       m,
		Ping:          db.PingContext,
	})

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	dispatcher.Wait()
	logger.Info("Server stopped. Goodbye!")
}
