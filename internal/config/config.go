// Package config loads runtime configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the server.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// BlobBackend selects where attachment bytes go: "fs" or "s3".
	BlobBackend string
	UploadDir   string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	// SandboxBackend selects the executor: "local" or "docker".
	SandboxBackend string
	PythonBin      string
	RunTimeout     time.Duration
}

// Load reads configuration. A .env file in the working directory is
// loaded first if present; real environment variables win over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:      envOrInt("PORT", 8080),
		DBPath:    envOr("DB_PATH", "data/projecthub.db"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		BlobBackend: envOr("BLOB_BACKEND", "fs"),
		UploadDir:   envOr("UPLOAD_DIR", "data/project_uploads"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOr("S3_BUCKET", "projecthub-uploads"),
		S3UseSSL:    envOrBool("S3_USE_SSL", false),

		SandboxBackend: envOr("SANDBOX_BACKEND", "local"),
		PythonBin:      envOr("PYTHON_BIN", "python3"),
		RunTimeout:     envOrDuration("RUN_TIMEOUT", 5*time.Second),
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
