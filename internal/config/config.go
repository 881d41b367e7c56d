package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port               string
	DBConnectionString string
	EncryptionKey      string
	ExtractorURL       string
	WriterURL          string
	SyncWorkers        int
	NoteLimit          int
	RequestTimeout     time.Duration
	JobTimeout         time.Duration
	WriterRateLimit    float64
	WriterBurst        int
}

func Load() (*Config, error) {
	port := getEnv("PORT", "8080")
	dbConnStr := getEnv("DB_CONNECTION_STRING", "")
	encryptionKey := getEnv("ENCRYPTION_KEY", "")
	extractorURL := getEnv("EXTRACTOR_URL", "http://localhost:8081")
	writerURL := getEnv("WRITER_URL", "http://localhost:8082")

	syncWorkers, err := strconv.Atoi(getEnv("SYNC_WORKERS", "4"))
	if err != nil {
		return nil, err
	}

	noteLimit, err := strconv.Atoi(getEnv("SYNC_NOTE_LIMIT", "0"))
	if err != nil {
		return nil, err
	}

	requestTimeout, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "60"))
	if err != nil {
		return nil, err
	}

	jobTimeout, err := strconv.Atoi(getEnv("JOB_TIMEOUT_MINUTES", "30"))
	if err != nil {
		return nil, err
	}

	// The destination service enforces a low request rate, so the writer
	// client is throttled process-wide.
	writerRate, err := strconv.ParseFloat(getEnv("WRITER_RATE_LIMIT", "3"), 64)
	if err != nil {
		return nil, err
	}

	writerBurst, err := strconv.Atoi(getEnv("WRITER_BURST", "1"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:               port,
		DBConnectionString: dbConnStr,
		EncryptionKey:      encryptionKey,
		ExtractorURL:       extractorURL,
		WriterURL:          writerURL,
		SyncWorkers:        syncWorkers,
		NoteLimit:          noteLimit,
		RequestTimeout:     time.Duration(requestTimeout) * time.Second,
		JobTimeout:         time.Duration(jobTimeout) * time.Minute,
		WriterRateLimit:    writerRate,
		WriterBurst:        writerBurst,
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
