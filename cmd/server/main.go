package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/notesync/notesync/internal/api"
	"github.com/notesync/notesync/internal/config"
	"github.com/notesync/notesync/internal/crypto"
	"github.com/notesync/notesync/internal/db"
	"github.com/notesync/notesync/internal/extractor"
	syncsvc "github.com/notesync/notesync/internal/sync"
	"github.com/notesync/notesync/internal/writer"

	_ "github.com/notesync/notesync/docs"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	// Load configuration with defaults
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate minimum required config
	if cfg.DBConnectionString == "" || cfg.EncryptionKey == "" {
		logger.Fatal("Missing required configuration (DB_CONNECTION_STRING and ENCRYPTION_KEY must be set)")
	}

	// Initialize database
	store, err := db.NewPostgresStore(cfg.DBConnectionString)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations with retry logic
	if err := retry(3, 5*time.Second, func() error {
		return store.Migrate()
	}); err != nil {
		logger.Fatalf("Failed to run migrations after retries: %v", err)
	}

	// Initialize credential vault
	vault, err := crypto.NewVault(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("Failed to initialize credential vault: %v", err)
	}

	// The limiter is process-wide so concurrent jobs share the destination
	// service's request budget.
	writerLimiter := rate.NewLimiter(rate.Limit(cfg.WriterRateLimit), cfg.WriterBurst)

	newExtractor := func(sourceToken string) syncsvc.ExtractionClient {
		return extractor.NewClient(cfg.ExtractorURL, sourceToken, logger,
			extractor.WithTimeout(cfg.RequestTimeout),
			extractor.WithNoteLimit(cfg.NoteLimit))
	}
	newWriter := func(destinationToken string) syncsvc.WriterClient {
		return writer.NewClient(cfg.WriterURL, destinationToken, writerLimiter, logger,
			writer.WithTimeout(cfg.RequestTimeout))
	}

	// Initialize services
	orchestrator := syncsvc.NewOrchestrator(store, vault, newExtractor, newWriter,
		cfg.SyncWorkers, cfg.RequestTimeout, logger)
	supervisor := syncsvc.NewSupervisor(store, orchestrator, cfg.JobTimeout, logger)
	credentials := syncsvc.NewCredentialService(store, vault, logger)

	// Setup router with middleware
	router := api.SetupRouter(api.NewHandler(supervisor, credentials, logger))
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(router)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	if err := store.Close(); err != nil {
		logger.Errorf("Failed to close database: %v", err)
	}
	logger.Info("Server exited properly")
}

// retry retries a function up to a certain number of attempts with a delay between attempts
func retry(attempts int, sleep time.Duration, fn func() error) error {
	if err := fn(); err != nil {
		if attempts--; attempts > 0 {
			time.Sleep(sleep)
			return retry(attempts, sleep, fn)
		}
		return err
	}
	return nil
}
