package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/notesync/notesync/internal/models"
)

// Store defines the interface for database operations
type Store interface {
	// Job operations
	CreateJob(ctx context.Context, job *models.SyncJob) error
	GetJob(ctx context.Context, jobID string) (*models.SyncJob, error)
	ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.SyncJob, int64, error)
	MarkJobRunning(ctx context.Context, jobID string) error
	SetJobTotal(ctx context.Context, jobID string, total int) error
	IncrementJobProgress(ctx context.Context, jobID string, processed, failed int) error
	FinishJob(ctx context.Context, jobID string, status models.JobStatus, errorMessage string) error

	// Sync state operations
	GetWatermarks(ctx context.Context, userID string) (map[string]*models.SyncState, error)
	UpsertState(ctx context.Context, state *models.SyncState) error
	DeleteAllState(ctx context.Context, userID string) (int64, error)

	// Credential operations
	SaveCredential(ctx context.Context, cred *models.Credential) error
	GetCredential(ctx context.Context, userID string) (*models.Credential, error)
	DeleteCredential(ctx context.Context, userID string) error

	// Log operations
	AddLog(ctx context.Context, entry *models.SyncLogEntry) error
	ListLogs(ctx context.Context, jobID string) ([]*models.SyncLogEntry, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Migrate() error {
	return s.MigrateDir("internal/db/migrations")
}

// MigrateDir applies migrations from an explicit directory, relative to the
// process working directory
func (s *PostgresStore) MigrateDir(dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(s.db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close releases the underlying connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
