// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. RESUMEX_SERVER_PORT
const EnvPrefix = "RESUMEX"

// Config is the full application configuration.
// Precedence: explicit env credentials, then RESUMEX_* env, then the config file, then defaults.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// LLMConfig configures the structured extractor
type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Models maps tier name (lite, standard, advanced) to a model name
	Models             map[string]string `mapstructure:"models"`
	ParseTemperature   float32           `mapstructure:"parse_temperature"`
	MatchTemperature   float32           `mapstructure:"match_temperature"`
	SuggestTemperature float32           `mapstructure:"suggest_temperature"`
	Timeout            time.Duration     `mapstructure:"timeout"`
}

// EmbeddingConfig configures the similarity ranker
type EmbeddingConfig struct {
	// Backend is "gemini" or "hashing". Empty picks gemini when an API key is present.
	Backend    string `mapstructure:"backend"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// JobsConfig configures the job aggregator and its providers
type JobsConfig struct {
	DefaultLimit    int              `mapstructure:"default_limit"`
	ProviderTimeout time.Duration    `mapstructure:"provider_timeout"`
	Breaker         BreakerConfig    `mapstructure:"breaker"`
	Adzuna          AdzunaConfig     `mapstructure:"adzuna"`
	JSearch         JSearchConfig    `mapstructure:"jsearch"`
	Remotive        RemotiveConfig   `mapstructure:"remotive"`
	HeadHunter      HeadHunterConfig `mapstructure:"headhunter"`
}

// BreakerConfig configures the per-provider circuit breaker
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"min_requests"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

// AdzunaConfig needs both credentials; either missing disables the provider
type AdzunaConfig struct {
	AppID   string `mapstructure:"app_id"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Country string `mapstructure:"country"`
}

// JSearchConfig is the RapidAPI JSearch provider
type JSearchConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Host    string `mapstructure:"host"`
}

// RemotiveConfig needs no credentials
type RemotiveConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// HeadHunterConfig is the hh.ru vacancies API. Disabled by default.
type HeadHunterConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	Area      string `mapstructure:"area"`
	UserAgent string `mapstructure:"user_agent"`
	Token     string `mapstructure:"token"`
}

// ServerConfig configures the HTTP front door
type ServerConfig struct {
	Port           int             `mapstructure:"port"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration   `mapstructure:"write_timeout"`
	MaxUploadBytes int64           `mapstructure:"max_upload_bytes"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket. Analysis endpoints get a
// stricter bucket of AnalysisPerMinute.
type RateLimitConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	Burst             int      `mapstructure:"burst"`
	AnalysisPerMinute int      `mapstructure:"analysis_per_minute"`
	Whitelist         []string `mapstructure:"whitelist"`
}

// LogConfig selects zap encoding and level
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// credentialEnv binds well-known provider variables that carry no prefix
var credentialEnv = map[string]string{
	"llm.api_key":           "GEMINI_API_KEY",
	"jobs.adzuna.app_id":    "ADZUNA_APP_ID",
	"jobs.adzuna.api_key":   "ADZUNA_API_KEY",
	"jobs.jsearch.api_key":  "JSEARCH_API_KEY",
	"jobs.headhunter.token": "HH_TOKEN",
}

// Load reads configuration from path (optional), the environment and defaults.
// An empty path searches ./resumex.yaml and $HOME/.resumex/resumex.yaml; absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range credentialEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("resumex")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.resumex")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has usable values.
// Missing credentials are not errors: the affected collaborator is disabled instead.
func (c *Config) Validate() error {
	if c.Jobs.DefaultLimit < 0 {
		return fmt.Errorf("config error: 'jobs.default_limit' must be non-negative")
	}
	if c.Jobs.ProviderTimeout <= 0 {
		return fmt.Errorf("config error: 'jobs.provider_timeout' must be positive")
	}
	if c.Jobs.Breaker.FailureThreshold < 0 || c.Jobs.Breaker.FailureThreshold > 1 {
		return fmt.Errorf("config error: 'jobs.breaker.failure_threshold' must be between 0 and 1")
	}
	switch c.Embedding.Backend {
	case "", "gemini", "hashing":
	default:
		return fmt.Errorf("config error: unknown embedding backend %q", c.Embedding.Backend)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("config error: 'embedding.dimensions' must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("config error: 'server.rate_limit.requests_per_second' must be positive when enabled")
	}
	return nil
}

// EmbeddingBackend resolves the effective embedding backend
func (c *Config) EmbeddingBackend() string {
	if c.Embedding.Backend != "" {
		return c.Embedding.Backend
	}
	if c.LLM.APIKey != "" {
		return "gemini"
	}
	return "hashing"
}
