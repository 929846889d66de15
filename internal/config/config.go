// Package config loads service configuration from environment variables,
// with an optional .env file for development.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	AllowedOrigins []string

	// Storage selects the note backend: json, sqlite or postgres.
	Storage     string
	DataFile    string
	SQLitePath  string
	PostgresDSN string

	// PhotoStore selects where photo files live: local or minio.
	PhotoStore     string
	UploadDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// SecretKey signs tokens; when empty a random key is generated at
	// startup and tokens won't survive a restart.
	SecretKey string
}

func Load() *Config {
	// Best effort; the file is optional outside development.
	_ = godotenv.Load()

	return &Config{
		Port:           getenv("PORT", "8000"),
		AllowedOrigins: strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		Storage:        getenv("STORAGE", "sqlite"),
		DataFile:       getenv("DATA_FILE", "./data/wine_notes.json"),
		SQLitePath:     getenv("SQLITE_PATH", "./data/wine_notes.db"),
		PostgresDSN:    getenv("DATABASE_URL", ""),
		PhotoStore:     getenv("PHOTO_STORE", "local"),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "wine-photos"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
		SecretKey:      getenv("SECRET_KEY", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
