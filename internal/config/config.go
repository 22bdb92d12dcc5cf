package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"iotguardian/internal/logx"
)

// Environment represents the deployment environment of the service.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// IsProduction reports whether the environment corresponds to production.
func (e Environment) IsProduction() bool {
	return e == Production
}

func (e Environment) valid() bool {
	switch e {
	case Development, Staging, Testing, Production:
		return true
	}
	return false
}

// InfluxConfig holds the optional InfluxDB connection used for reading history.
type InfluxConfig struct {
	URL    string `envconfig:"INFLUXDB_URL"`
	Token  string `envconfig:"INFLUXDB_TOKEN"`
	Org    string `envconfig:"INFLUXDB_ORG"`
	Bucket string `envconfig:"INFLUXDB_BUCKET" default:"iot_guardian"`
}

// Enabled reports whether an InfluxDB URL was configured.
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// RedisConfig holds the optional Redis connection used for commands and quotas.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// AIConfig configures the troubleshooting completion providers.
type AIConfig struct {
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeminiBaseURL string        `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL"`
	Timeout       time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	MaxTokens     int           `envconfig:"AI_MAX_TOKENS" default:"1024"`
	Temperature   float32       `envconfig:"AI_TEMPERATURE" default:"0.2"`
}

// Config holds the application's configuration.
type Config struct {
	Environment    Environment   `envconfig:"ENVIRONMENT" default:"development"`
	Port           string        `envconfig:"PORT" default:"8081"`
	AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:9002"`
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL       time.Duration `envconfig:"JWT_TTL" default:"24h"`
	AdminUsername  string        `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword  string        `envconfig:"ADMIN_PASSWORD" default:"admin"`
	CommandTTL     time.Duration `envconfig:"DEVICE_COMMAND_TTL" default:"24h"`
	OfflineAfter   time.Duration `envconfig:"DEVICE_OFFLINE_AFTER" default:"5m"`
	SeedFile       string        `envconfig:"SEED_FILE"`

	InfluxConfig
	RedisConfig
	AIConfig
}

// LoadConfig loads the configuration from the environment, reading a .env file first when one exists.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logx.Info().Msg("No .env file found, relying on system environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks combinations envconfig cannot express.
func (c Config) Validate() error {
	if !c.Environment.valid() {
		return fmt.Errorf("unknown ENVIRONMENT %q", c.Environment)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.InfluxConfig.Enabled() && (c.InfluxConfig.Token == "" || c.InfluxConfig.Org == "") {
		return fmt.Errorf("InfluxDB configuration is incomplete. Please set INFLUXDB_URL, INFLUXDB_TOKEN, and INFLUXDB_ORG environment variables")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}
