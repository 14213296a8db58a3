package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full server configuration, loaded from the environment.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	OCR     OCRConfig
	Auth    AuthConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        string
	CORSOrigins string
	BodyLimit   int
}

// StorageConfig selects and configures the document storage backend.
type StorageConfig struct {
	Mode      string // "local" or "s3"
	LocalPath string
	AWSRegion string
	AWSBucket string
	KeyPrefix string
}

// RedisConfig configures the job queue backend. Optional: when Host is
// empty the in-memory queue is used.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns host:port for the Redis client.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a Redis backend was configured.
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// OCRConfig points at the remote document-storage/OCR service.
type OCRConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// AuthConfig holds the key used to validate wizard-issued session tokens.
// Token issuance lives in the wizard's auth layer, not here.
type AuthConfig struct {
	SessionTokenSecret string
}

// Load reads the configuration from environment variables with defaults
// suitable for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			BodyLimit:   getEnvInt("BODY_LIMIT_BYTES", 10*1024*1024),
		},
		Storage: StorageConfig{
			Mode:      getEnv("STORAGE_MODE", "local"),
			LocalPath: getEnv("UPLOAD_DIR", "./uploads"),
			AWSRegion: getEnv("AWS_REGION", "us-east-1"),
			AWSBucket: getEnv("AWS_BUCKET", "doccapture-uploads"),
			KeyPrefix: getEnv("STORAGE_KEY_PREFIX", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		OCR: OCRConfig{
			BaseURL:    getEnv("OCR_BASE_URL", "http://localhost:9090"),
			APIKey:     getEnv("OCR_API_KEY", ""),
			Timeout:    getEnvDuration("OCR_TIMEOUT", 2*time.Minute),
			MaxRetries: getEnvInt("OCR_MAX_RETRIES", 3),
		},
		Auth: AuthConfig{
			SessionTokenSecret: getEnv("SESSION_TOKEN_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
