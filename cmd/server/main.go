package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	httpapi "bookingdesk-backend/internal/api/http"
	"bookingdesk-backend/internal/config"
	"bookingdesk-backend/internal/logger"
	"bookingdesk-backend/internal/repository/postgres"
	"bookingdesk-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Bookingdesk Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

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

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	emailSvc := service.NewSendgridEmailService(
		cfg.SendGrid.APIKey,
		cfg.SendGrid.FromEmail,
		cfg.SendGrid.FromName,
	)
	calendarSvc := service.NewLoggingCalendarService()
	gradeSink := service.NewLoggingGradeSink()

	bookingSvc := service.NewBookingService(
		store.Sessions,
		store.Activities,
		store.Signups,
		store.StatusHistory,
		store.Users,
		emailSvc,
		calendarSvc,
	)
	attendanceSvc := service.NewAttendanceService(
		store.Sessions,
		store.Activities,
		store.Signups,
		store.StatusHistory,
		emailSvc,
		gradeSink,
	)

	// Set up HTTP server
	handler := httpapi.NewBookingHandler(bookingSvc, attendanceSvc)
	router := httpapi.NewRouter(handler)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
