package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Vexa     VexaConfig
	Gemini   GeminiConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Auth     AuthConfig
	BotStart BotStartConfig
	Log      LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds the meeting store connection. URL is the store URL,
// Password the privileged access key; individual fields are used when URL is empty.
type DatabaseConfig struct {
	URL         string `envconfig:"DATABASE_URL"`
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD"`
	Name        string `envconfig:"DB_NAME" default:"postgres"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"require"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"2"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// VexaConfig holds the meeting bot gateway configuration
type VexaConfig struct {
	APIKey  string `envconfig:"VEXA_API_KEY"`
	BaseURL string `envconfig:"VEXA_BASE_URL" default:"https://gateway.dev.vexa.ai"`
	BotName string `envconfig:"VEXA_BOT_NAME" default:"EllenaTranscriber"`
}

// GeminiConfig holds the generative language API configuration
type GeminiConfig struct {
	APIKey         string `envconfig:"GEMINI_API_KEY"`
	BaseURL        string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	SummaryModel   string `envconfig:"GEMINI_SUMMARY_MODEL" default:"gemini-1.5-flash"`
	EmbeddingModel string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"embedding-001"`
	MaxRetries     uint64 `envconfig:"AI_MAX_RETRIES" default:"0"`
}

// UpstreamConfig holds settings shared by outbound HTTP clients
type UpstreamConfig struct {
	Timeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
}

// RedisConfig holds Redis configuration. Addr empty means Redis is not used.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Prefix   string `envconfig:"REDIS_PREFIX" default:"meetfn:"`
}

// StorageConfig holds object storage configuration for transcript archives
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"meeting-transcripts"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// AuthConfig holds bearer token verification settings. Secret empty disables verification.
type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
}

// BotStartConfig controls duplicate start-bot suppression. Zero disables it.
type BotStartConfig struct {
	DedupWindow time.Duration `envconfig:"BOT_START_DEDUP_WINDOW" default:"0s"`
}

// LogConfig holds logger settings. File empty means stdout only.
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	File       string `envconfig:"LOG_FILE"`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"10"`
	MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"30"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks settings the process cannot start without.
// Integration credentials are checked per request instead.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must not be negative")
	}
	if c.BotStart.DedupWindow < 0 {
		return fmt.Errorf("BOT_START_DEDUP_WINDOW must not be negative")
	}
	return nil
}

// StoreConfigured reports whether the meeting store credentials are present
func (c *Config) StoreConfigured() bool {
	return c.Database.URL != "" || c.Database.Password != ""
}

// RequireStore returns a configuration error when the store credentials are missing
func (c *Config) RequireStore() error {
	if !c.StoreConfigured() {
		return apperrors.ErrConfigMissing("DATABASE_URL", "DB_PASSWORD")
	}
	return nil
}

// RequireBotGateway returns a configuration error when the gateway key is missing
func (c *Config) RequireBotGateway() error {
	if c.Vexa.APIKey == "" {
		return apperrors.ErrConfigMissing("VEXA_API_KEY")
	}
	return nil
}

// RequireAI returns a configuration error when the generative AI key is missing
func (c *Config) RequireAI() error {
	if c.Gemini.APIKey == "" {
		return apperrors.ErrConfigMissing("GEMINI_API_KEY")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DatabaseHost returns the store host for logging without credentials
func (c *Config) DatabaseHost() string {
	if c.Database.URL == "" {
		return c.Database.Host
	}
	u, err := url.Parse(c.Database.URL)
	if err != nil {
		return "unparseable"
	}
	return u.Host
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
