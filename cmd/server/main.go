/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the school transport management server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (.env honored)
  2. Initialize SQLite store and file storage
  3. Seed the administrator account if missing
  4. Wire enrollment service, notifier, and API handler
  5. Start the overdue reminder schedule
  6. Start server with graceful shutdown

ENVIRONMENT:
  PORT            HTTP server port (default: 8080)
  DB_PATH         SQLite database path (default: transport.db)
  LOG_LEVEL       logrus level (default: info)
  JWT_SECRET      Session token signing key (required)
  STORAGE_DIR     Uploaded file directory (default: ./data/files)
  ADMIN_NAME      Seeded administrator display name
  ADMIN_EMAIL     Seeded administrator login
  ADMIN_PASSWORD  Seeded administrator password
  REMINDER_CRON   Overdue digest schedule (default: 0 8 * * *)
  SMTP_HOST/PORT/USERNAME/PASSWORD, SENDER_EMAIL
                  Mail relay; notifications are dropped when unset

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the reminder schedule
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vanline/transport/api"
	"github.com/vanline/transport/config"
	"github.com/vanline/transport/enrollment"
	"github.com/vanline/transport/notify"
	"github.com/vanline/transport/storage"
	"github.com/vanline/transport/store/sqlite"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// File storage for uploaded signed contracts
	blobs, err := storage.NewDisk(cfg.StorageDir, "/files")
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// Notifications are best-effort; without SMTP they are dropped.
	var notifier enrollment.Notifier = notify.Noop{}
	var digester api.Digester = notify.Noop{}
	if cfg.MailEnabled() {
		sender := notify.NewSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		}, log)
		notifier = sender
		digester = sender
	}

	service := enrollment.NewService(store, notifier, log)

	// Authentication; seed the first admin account from the environment.
	auth := api.NewAuthenticator(store, cfg.JWTSecret)
	if err := auth.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to seed administrator: %v", err)
	}

	handler := api.NewHandler(service, auth, blobs, log)
	router := api.NewRouter(handler)

	// Daily overdue digest to the administrator.
	var reminder *api.Reminder
	if cfg.MailEnabled() && cfg.AdminEmail != "" {
		reminder = api.NewReminder(service, digester, cfg.AdminEmail, cfg.ReminderCron, log)
		if err := reminder.Start(); err != nil {
			log.Fatalf("Failed to start reminder schedule: %v", err)
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Server starting on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if reminder != nil {
		reminder.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
