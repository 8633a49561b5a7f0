package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ContractScan server and CLI.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	MaxUploadBytes     int64
	RateLimitPerMinute int
	// BootstrapAdminKey, when set, is installed as an admin key for the
	// default tenant at startup if no key with its prefix exists.
	BootstrapAdminKey string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Transport string
	APIKey    string
	Model     string
	BaseURL   string
	// Timeout bounds one model call; 0 keeps the transport default.
	Timeout        time.Duration
	MaxPromptBytes int
}

type AnalysisConfig struct {
	MinContentChars int
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	TransportREST = "rest"
	TransportSDK  = "sdk"

	DefaultModel = "gemini-1.5-pro-latest"
)

var validTransports = map[string]bool{
	TransportREST: true,
	TransportSDK:  true,
}

// fileConfig mirrors the optional YAML file named by CONTRACTSCAN_CONFIG.
// Environment variables take precedence over values read from the file.
type fileConfig struct {
	Server struct {
		Port               int    `yaml:"port"`
		Env                string `yaml:"env"`
		MaxUploadBytes     int64  `yaml:"max_upload_bytes"`
		RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	AI struct {
		Transport      string `yaml:"transport"`
		Model          string `yaml:"model"`
		BaseURL        string `yaml:"base_url"`
		TimeoutSecs    int    `yaml:"timeout_secs"`
		MaxPromptBytes int    `yaml:"max_prompt_bytes"`
	} `yaml:"ai"`
	Analysis struct {
		MinContentChars int `yaml:"min_content_chars"`
	} `yaml:"analysis"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads configuration from the optional YAML file and environment
// variables and returns a validated Config. A missing API key is an error:
// the process must not start without a usable credential.
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("CONTRACTSCAN_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("CONTRACTSCAN_PORT", or(fc.Server.Port, 8080)),
			Env:                envString("CONTRACTSCAN_ENV", or(fc.Server.Env, "development")),
			MaxUploadBytes:     int64(envInt("CONTRACTSCAN_MAX_UPLOAD_BYTES", int(or(fc.Server.MaxUploadBytes, 20<<20)))),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", or(fc.Server.RateLimitPerMinute, 60)),
			BootstrapAdminKey:  os.Getenv("CONTRACTSCAN_BOOTSTRAP_ADMIN_KEY"),
		},
		Database: DatabaseConfig{
			URL:             envString("DATABASE_URL", fc.Database.URL),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: envString("REDIS_URL", fc.Redis.URL),
		},
		AI: AIConfig{
			Transport:      envString("AI_TRANSPORT", or(fc.AI.Transport, TransportREST)),
			APIKey:         apiKey(),
			Model:          envString("AI_MODEL", or(fc.AI.Model, DefaultModel)),
			BaseURL:        envString("AI_BASE_URL", fc.AI.BaseURL),
			Timeout:        envDurationSecs("AI_TIMEOUT_SECS", time.Duration(fc.AI.TimeoutSecs)*time.Second),
			MaxPromptBytes: envInt("AI_MAX_PROMPT_BYTES", or(fc.AI.MaxPromptBytes, 4<<20)),
		},
		Analysis: AnalysisConfig{
			MinContentChars: envInt("CONTRACTSCAN_MIN_CONTENT_CHARS", or(fc.Analysis.MinContentChars, 10)),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", or(fc.Log.Level, "info")),
			Format: envString("LOG_FORMAT", or(fc.Log.Format, "json")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required")
	}

	if !validTransports[c.AI.Transport] {
		return fmt.Errorf("AI_TRANSPORT must be one of rest, sdk; got %q", c.AI.Transport)
	}
	if c.AI.Model == "" {
		return fmt.Errorf("AI_MODEL must not be empty")
	}
	if c.AI.BaseURL != "" && !strings.HasPrefix(c.AI.BaseURL, "http://") && !strings.HasPrefix(c.AI.BaseURL, "https://") {
		return fmt.Errorf("AI_BASE_URL must start with http:// or https://, got %q", c.AI.BaseURL)
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("AI_TIMEOUT_SECS must not be negative")
	}
	if c.AI.MaxPromptBytes <= 0 {
		return fmt.Errorf("AI_MAX_PROMPT_BYTES must be positive")
	}

	if c.Analysis.MinContentChars < 0 {
		return fmt.Errorf("CONTRACTSCAN_MIN_CONTENT_CHARS must not be negative")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("CONTRACTSCAN_MAX_UPLOAD_BYTES must be positive")
	}

	if c.Redis.URL != "" && c.Database.URL == "" {
		return fmt.Errorf("REDIS_URL requires DATABASE_URL: rate limits are keyed by API key")
	}
	if c.Server.BootstrapAdminKey != "" && c.Database.URL == "" {
		return fmt.Errorf("CONTRACTSCAN_BOOTSTRAP_ADMIN_KEY requires DATABASE_URL")
	}

	return nil
}

// HistoryEnabled reports whether analyses are persisted and API keys enforced.
func (c *Config) HistoryEnabled() bool {
	return c.Database.URL != ""
}

// apiKey reads the model credential. Stray quotes and whitespace around the
// value are removed since they are a common copy-paste artifact in .env files.
func apiKey() string {
	for _, k := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		if v := sanitizeKey(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func sanitizeKey(v string) string {
	return strings.Trim(strings.TrimSpace(v), `"' `)
}

func or[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
