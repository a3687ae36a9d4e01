package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"dexter/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	AI            AIConfig
	Chat          ChatConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"dexter"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Redis host was configured at all.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

// Enabled reports whether telemetry publishing is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type AIConfig struct {
	OpenAIKey       string  `envconfig:"OPENAI_API_KEY"`
	GeminiKey       string  `envconfig:"GEMINI_API_KEY"`
	DefaultModel    string  `envconfig:"DEFAULT_MODEL" default:"gemini-flash"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"60s"`
	OpenAIReqPerMin float64 `envconfig:"OPENAI_REQ_PER_MIN" default:"500"`
	GeminiReqPerMin float64 `envconfig:"GEMINI_REQ_PER_MIN" default:"60"`
}

// ChatConfig holds the agent policy knobs. The re-plan bound and tool
// fan-out are deliberately configuration, not hard-coded assumptions.
type ChatConfig struct {
	MaxReplans     int           `envconfig:"CHAT_MAX_REPLANS" default:"1"`
	ToolFanout     int           `envconfig:"CHAT_TOOL_FANOUT" default:"4"`
	ToolTimeout    time.Duration `envconfig:"CHAT_TOOL_TIMEOUT" default:"10s"`
	SessionTimeout time.Duration `envconfig:"CHAT_SESSION_TIMEOUT" default:"2m"`

	// Per-caller fixed-window quota.
	RateLimit  int           `envconfig:"CHAT_RATE_LIMIT" default:"20"`
	RateWindow time.Duration `envconfig:"CHAT_RATE_WINDOW" default:"1h"`

	// Callers granted access to pro-tier models.
	ProCallers []string `envconfig:"CHAT_PRO_CALLERS"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
