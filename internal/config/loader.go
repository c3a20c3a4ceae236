package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"garden_buddy/internal/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. GARDEN_LLM_API_KEY
const EnvPrefix = "GARDEN"

// Config is the full application configuration
type Config struct {
	Log       logger.Config   `yaml:"log" envconfig:"LOG"`
	Knowledge KnowledgeConfig `yaml:"knowledge" envconfig:"KNOWLEDGE"`
	Garden    GardenConfig    `yaml:"garden" envconfig:"GARDEN"`
	LLM       LLMConfig       `yaml:"llm" envconfig:"LLM"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Sync      SyncConfig      `yaml:"sync" envconfig:"SYNC"`
	Weather   WeatherConfig   `yaml:"weather" envconfig:"WEATHER"`
	Auth      AuthConfig      `yaml:"auth" envconfig:"AUTH"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
}

// KnowledgeConfig locates the baseline knowledge document
type KnowledgeConfig struct {
	DocumentURL  string        `yaml:"document_url" envconfig:"DOCUMENT_URL"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	MinScore     int           `yaml:"min_score" envconfig:"MIN_SCORE"`
	MaxResults   int           `yaml:"max_results" envconfig:"MAX_RESULTS"`
}

// GardenConfig holds quota and history limits
type GardenConfig struct {
	FreePlantLimit  int    `yaml:"free_plant_limit" envconfig:"FREE_PLANT_LIMIT"`
	GuestLimit      int    `yaml:"guest_limit" envconfig:"GUEST_LIMIT"`
	HistoryCap      int    `yaml:"history_cap" envconfig:"HISTORY_CAP"`
	DefaultLocation string `yaml:"default_location" envconfig:"DEFAULT_LOCATION"`
}

// LLMConfig selects and tunes the optional chat model
type LLMConfig struct {
	Provider    string        `yaml:"provider" envconfig:"PROVIDER"` // openai, ollama, deepseek, ark, or empty to disable
	Model       string        `yaml:"model" envconfig:"MODEL"`
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL"`
	APIKey      string        `yaml:"api_key" envconfig:"API_KEY"`
	MaxTokens   int           `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
	Temperature float64       `yaml:"temperature" envconfig:"TEMPERATURE"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	Breaker     BreakerConfig `yaml:"breaker" envconfig:"BREAKER"`
}

// BreakerConfig tunes the circuit breaker around outbound calls
type BreakerConfig struct {
	MaxFailures          uint32        `yaml:"max_failures" envconfig:"MAX_FAILURES"`
	Timeout              time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	HalfOpenMaxSuccesses uint32        `yaml:"half_open_max_successes" envconfig:"HALF_OPEN_MAX_SUCCESSES"`
}

// StorageConfig picks the key-value backend
type StorageConfig struct {
	Backend    string        `yaml:"backend" envconfig:"BACKEND"` // memory, redis, sqlite
	RedisURL   string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	SQLitePath string        `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	KeyPrefix  string        `yaml:"key_prefix" envconfig:"KEY_PREFIX"`
	TTL        time.Duration `yaml:"ttl" envconfig:"TTL"`
}

// SyncConfig paces the remote teaching mirror
type SyncConfig struct {
	Enabled   bool    `yaml:"enabled" envconfig:"ENABLED"`
	Rate      float64 `yaml:"rate" envconfig:"RATE"` // records per second
	Burst     int     `yaml:"burst" envconfig:"BURST"`
	QueueSize int     `yaml:"queue_size" envconfig:"QUEUE_SIZE"`
}

// WeatherConfig points at the forecast API
type WeatherConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// AuthConfig describes the local identity used by the CLI
type AuthConfig struct {
	UserID string `yaml:"user_id" envconfig:"USER_ID"`
	Email  string `yaml:"email" envconfig:"EMAIL"`
	Tier   string `yaml:"tier" envconfig:"TIER"` // guest, free, pro
}

// ServerConfig configures the websocket transport
type ServerConfig struct {
	Address        string   `yaml:"address" envconfig:"ADDRESS"`
	OriginPatterns []string `yaml:"origin_patterns" envconfig:"ORIGIN_PATTERNS"`
}

// ExportConfig sets where /export writes files
type ExportConfig struct {
	Directory string        `yaml:"directory" envconfig:"DIRECTORY"`
	MaxAge    time.Duration `yaml:"max_age" envconfig:"MAX_AGE"` // older exports are pruned at startup, 0 keeps all
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Log: logger.Config{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			TimeFormat: "rfc3339",
			FilePath:   "logs/garden_buddy.log",
		},
		Knowledge: KnowledgeConfig{
			FetchTimeout: 10 * time.Second,
			MinScore:     2,
			MaxResults:   3,
		},
		Garden: GardenConfig{
			FreePlantLimit:  5,
			GuestLimit:      15,
			HistoryCap:      50,
			DefaultLocation: "London",
		},
		LLM: LLMConfig{
			MaxTokens:   1024,
			Temperature: 0.7,
			Timeout:     30 * time.Second,
			Breaker: BreakerConfig{
				MaxFailures:          3,
				Timeout:              30 * time.Second,
				HalfOpenMaxSuccesses: 2,
			},
		},
		Storage: StorageConfig{
			Backend:    "memory",
			SQLitePath: "data/garden_buddy.db",
			KeyPrefix:  "garden",
		},
		Sync: SyncConfig{
			Rate:      5,
			Burst:     10,
			QueueSize: 256,
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/weather",
			Timeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			UserID: "guest",
			Tier:   "guest",
		},
		Server: ServerConfig{
			Address:        "127.0.0.1:6380",
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		},
		Export: ExportConfig{
			Directory: "exports",
			MaxAge:    30 * 24 * time.Hour,
		},
	}
}

// LoadConfig builds the configuration: defaults, then the YAML file at path
// (skipped when it does not exist), then .env, then GARDEN_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug().Str("path", path).Msg("config file not found, using defaults")
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("error parsing YAML: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "redis" && c.Storage.RedisURL == "" {
		return fmt.Errorf("storage.redis_url is required for the redis backend")
	}
	switch c.LLM.Provider {
	case "", "openai", "ollama", "deepseek", "ark":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Auth.Tier {
	case "guest", "free", "pro":
	default:
		return fmt.Errorf("unknown auth tier %q", c.Auth.Tier)
	}
	if c.Garden.FreePlantLimit < 0 || c.Garden.GuestLimit < 0 || c.Garden.HistoryCap <= 0 {
		return fmt.Errorf("garden limits must be non-negative and history_cap positive")
	}
	return nil
}
