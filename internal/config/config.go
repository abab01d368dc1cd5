package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"storyquest-server/internal/utils"

	"github.com/kelseyhightower/envconfig"
)

// Storage backends.
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config содержит конфигурацию сервера историй.
type Config struct {
	// Сервер
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	Env             string        `envconfig:"ENV" default:"development"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Логирование
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Хранилище: postgres или firestore
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"postgres"`

	// PostgreSQL
	DBHost              string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort              string        `envconfig:"DB_PORT" default:"5432"`
	DBUser              string        `envconfig:"DB_USER" default:"postgres"`
	DBName              string        `envconfig:"DB_NAME" default:"storyquest"`
	DBSSLMode           string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns          int32         `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout       time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"5m"`
	DBMigrationsEnabled bool          `envconfig:"DB_MIGRATIONS_ENABLED" default:"true"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string `ignored:"true"`

	// Firestore
	FirestoreProjectID       string `envconfig:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string `envconfig:"FIRESTORE_CREDENTIALS_FILE"`

	// Redis (кэш историй). Пустой адрес отключает кэш.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	StoryCacheTTL time.Duration `envconfig:"STORY_CACHE_TTL" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string `ignored:"true"`

	// RabbitMQ. Пустой URL - события только логируются.
	RabbitMQURL       string `envconfig:"RABBITMQ_URL"`
	EndingEventsQueue string `envconfig:"ENDING_EVENTS_QUEUE" default:"story_ending_events"`

	// Rate limiting по IP для /api/v1. Счетчики в Redis, если задан REDIS_ADDR.
	RateLimitEnabled  bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRequests uint          `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	SecretsDir         string `envconfig:"SECRETS_DIR" default:"/run/secrets"`
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var err error
	if cfg.StorageBackend == BackendPostgres {
		cfg.DBPassword, err = utils.ReadSecret(cfg.SecretsDir, "db_password")
		if err != nil {
			return nil, err
		}
	}
	if cfg.RedisAddr != "" {
		// Пароль Redis необязателен.
		cfg.RedisPassword, err = utils.ReadSecret(cfg.SecretsDir, "redis_password")
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendPostgres:
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q (expected %s or %s)", c.StorageBackend, BackendPostgres, BackendFirestore)
	}
	if c.RateLimitEnabled && (c.RateLimitRequests == 0 || c.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive, got %d per %s",
			c.RateLimitRequests, c.RateLimitWindow)
	}
	if c.StoryCacheTTL <= 0 {
		return fmt.Errorf("STORY_CACHE_TTL must be positive, got %s", c.StoryCacheTTL)
	}
	return nil
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL. Логин и пароль
// экранируются, пароль из секрета может содержать '@', '/' или '#'.
func (c *Config) GetDSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSSLMode}}.Encode(),
	}
	return dsn.String()
}

// GetAllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) GetAllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
