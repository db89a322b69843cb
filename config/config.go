// Package config loads process configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type DBConfig struct {
	Host     string        `env:"DB_HOST,default=127.0.0.1"`
	Port     int           `env:"DB_PORT,default=3306"`
	Name     string        `env:"DB_NAME,default=bancorep"`
	User     string        `env:"DB_USER,default=root"`
	Password string        `env:"DB_PASSWORD"`
	Timeout  time.Duration `env:"DB_TIMEOUT,default=10s"`
	// BatchSize bounds the number of rows per INSERT statement inside the upsert transaction.
	BatchSize int `env:"DB_UPSERT_BATCH_SIZE,default=1000"`
}

type S3Config struct {
	Bucket          string `env:"S3_BUCKET,default=dolar-raw-2025"`
	Region          string `env:"S3_REGION,default=us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE,default=false"`
	// R2AccountID switches the store to Cloudflare R2 and overrides Endpoint.
	R2AccountID string `env:"S3_R2_ACCOUNT_ID"`
}

type FeedConfig struct {
	URL       string        `env:"FEED_URL"`
	KeyPrefix string        `env:"FEED_KEY_PREFIX,default=dolar"`
	Timeout   time.Duration `env:"FEED_TIMEOUT,default=30s"`
	Schedule  string        `env:"FEED_SCHEDULE"`
}

type NotifyConfig struct {
	ProjectID    string `env:"NOTIFY_PROJECT_ID"`
	Endpoint     string `env:"NOTIFY_ENDPOINT"`
	Topic        string `env:"NOTIFY_TOPIC"`
	Subscription string `env:"NOTIFY_SUBSCRIPTION"`
}

type HTTPConfig struct {
	Port           int64  `env:"HTTP_PORT,default=8080"`
	Mode           string `env:"GIN_MODE,default=release"`
	StaticDir      string `env:"STATIC_DIR,default=static"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"`
	DebugLogging   bool   `env:"HTTP_DEBUG_LOGGING,default=false"`
}

type QueryConfig struct {
	DefaultLimit  int           `env:"QUERY_DEFAULT_LIMIT,default=1000"`
	CacheDriver   string        `env:"QUERY_CACHE_DRIVER,default=freecache"`
	CacheTTL      time.Duration `env:"QUERY_CACHE_TTL,default=0s"`
	CacheSizeMB   int           `env:"QUERY_CACHE_SIZE_MB,default=32"`
	RedisAddr     string        `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB,default=0"`
}

type MetricsConfig struct {
	OTLPEndpoint     string `env:"OTLP_ENDPOINT"`
	OTLPGRPCEndpoint string `env:"OTLP_GRPC_ENDPOINT"`
	Environment      string `env:"SERVICE_ENV,default=development"`
	Version          string `env:"SERVICE_VERSION,default=1.0.0"`
}

type Config struct {
	DB             DBConfig
	S3             S3Config
	Feed           FeedConfig
	Notify         NotifyConfig
	HTTP           HTTPConfig
	Query          QueryConfig
	Metrics        MetricsConfig
	MigrationsPath string `env:"MIGRATIONS_PATH"`
}

// Load reads ENV_FILE (default ".env") when present and decodes the
// environment. Variables already set in the environment win over the file.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.HTTP.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) MetricsEnabled() bool {
	return c.Metrics.OTLPEndpoint != "" || c.Metrics.OTLPGRPCEndpoint != ""
}

func (c *Config) ValidateFetcher() error {
	if c.Feed.URL == "" {
		return errors.New("FEED_URL is required")
	}
	if c.S3.Bucket == "" {
		return errors.New("S3_BUCKET is required")
	}
	return nil
}

func (c *Config) ValidateDB() error {
	if c.DB.Host == "" || c.DB.Name == "" || c.DB.User == "" {
		return errors.New("DB_HOST, DB_NAME and DB_USER are required")
	}
	if c.DB.BatchSize <= 0 {
		return fmt.Errorf("DB_UPSERT_BATCH_SIZE must be positive, got %d", c.DB.BatchSize)
	}
	return nil
}
