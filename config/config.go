package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	DataDir       string `json:"data_dir"`
	LogDir        string `json:"log_dir"`
	VideoStoreDir string `json:"video_store_dir"`
	PublicDir     string `json:"public_dir"`

	// CORS Configuration
	CORS CORSConfig `json:"cors"`

	// Rate Limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// External processing service (transcription/translation)
	Pipeline PipelineConfig `json:"pipeline"`

	// Auth service
	Auth AuthConfig `json:"auth"`

	// Optional deck backup bucket
	Backup BackupConfig `json:"backup"`

	// Deck settings
	Deck DeckConfig `json:"deck"`

	// Application version
	Version string `json:"version"`

	// Request and shutdown timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path               string        `json:"path"`
	MaxConnections     int           `json:"max_connections"`
	MaxIdleConnections int           `json:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `json:"conn_max_lifetime"`
}

type PipelineConfig struct {
	BaseURL        string        `json:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout"`
	PollInterval   time.Duration `json:"poll_interval"`
	ProcessTimeout time.Duration `json:"process_timeout"`
	FromLang       string        `json:"from_lang"`
	ToLang         string        `json:"to_lang"`
}

type AuthConfig struct {
	BaseURL        string        `json:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

type BackupConfig struct {
	Enabled   bool   `json:"enabled"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
}

type DeckConfig struct {
	TodayTarget int `json:"today_target"`
}

type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
	BurstSize         int  `json:"burst_size"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", defaultDataDir())

	cfg := &Config{
		// Server settings
		ServerPort:   getEnv("SERVER_PORT", "8451"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 0), // streaming responses must not be cut off
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		// Application paths
		DataDir:       dataDir,
		LogDir:        getEnv("LOG_DIR", filepath.Join(dataDir, "logs")),
		VideoStoreDir: getEnv("VIDEO_STORE_DIR", filepath.Join(dataDir, "videos")),
		PublicDir:     getEnv("PUBLIC_DIR", filepath.Join(dataDir, "public")),

		// Application version
		Version: getEnv("VERSION", "1.0.0"),

		// Request and shutdown timeouts
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// CORS Configuration
		CORS: CORSConfig{
			Enabled:        getEnvAsBool("CORS_ENABLED", true),
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "DELETE", "OPTIONS"},
			),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Range"}),
			ExposedHeaders:   getEnvAsStringSlice("CORS_EXPOSED_HEADERS", []string{"Content-Range", "Accept-Ranges"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		// Rate Limiting
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", false),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 240),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 40),
		},

		// Database
		Database: DatabaseConfig{
			Path:               getEnv("DB_PATH", filepath.Join(dataDir, "vidlingo.db")),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},

		// Processing service
		Pipeline: PipelineConfig{
			BaseURL:        getEnv("PIPELINE_URL", "http://127.0.0.1:8000"),
			RequestTimeout: getEnvAsDuration("PIPELINE_REQUEST_TIMEOUT", 30*time.Second),
			PollInterval:   getEnvAsDuration("PIPELINE_POLL_INTERVAL", time.Second),
			ProcessTimeout: getEnvAsDuration("PIPELINE_PROCESS_TIMEOUT", 30*time.Minute),
			FromLang:       getEnv("PIPELINE_FROM_LANG", "en"),
			ToLang:         getEnv("PIPELINE_TO_LANG", "zh-CHS"),
		},

		// Auth service
		Auth: AuthConfig{
			BaseURL:        getEnv("AUTH_URL", "http://127.0.0.1:8080"),
			RequestTimeout: getEnvAsDuration("AUTH_REQUEST_TIMEOUT", 15*time.Second),
		},

		// Deck backups
		Backup: BackupConfig{
			Enabled:   getEnvAsBool("BACKUP_ENABLED", false),
			AccessKey: getEnv("BACKUP_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_SECRET_KEY", ""),
			Region:    getEnv("BACKUP_REGION", "us-east-1"),
			Endpoint:  getEnv("BACKUP_ENDPOINT", ""),
			Bucket:    getEnv("BACKUP_BUCKET", ""),
		},

		Deck: DeckConfig{
			TodayTarget: getEnvAsInt("DECK_TODAY_TARGET", 20),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vidlingo"
	}
	return filepath.Join(home, ".vidlingo")
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}
	if err := validateTimeouts(c); err != nil {
		return err
	}
	if err := validateServices(c); err != nil {
		return err
	}
	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.DataDir, "data directory"},
		{c.LogDir, "log directory"},
		{c.VideoStoreDir, "video store directory"},
		{c.PublicDir, "public directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	return nil
}

func validateServices(c *Config) error {
	if c.Pipeline.BaseURL == "" {
		return fmt.Errorf("pipeline base URL is required")
	}
	if c.Pipeline.PollInterval <= 0 {
		return fmt.Errorf("pipeline poll interval must be positive")
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("backup bucket is required when backups are enabled")
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}
