package ratelimit

import (
	"time"

	"github.com/jonathan/resumex/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	DefaultBurst    int
	CleanupInterval time.Duration
	IdleAfter       time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromConfig converts the server rate limit settings
func FromConfig(cfg config.RateLimitConfig) *Config {
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}

	whitelist := make(map[string]bool, len(cfg.Whitelist))
	for _, ip := range cfg.Whitelist {
		whitelist[ip] = true
	}

	// requests_per_second is expressed as a per-second limit
	limit := max(1, int(cfg.RequestsPerSecond))
	window := time.Duration(float64(limit) / cfg.RequestsPerSecond * float64(time.Second))

	return &Config{
		Enabled:         true,
		DefaultLimit:    limit,
		DefaultWindow:   window,
		DefaultBurst:    cfg.Burst,
		CleanupInterval: 5 * time.Minute,
		IdleAfter:       time.Hour,
		Whitelist:       whitelist,
		EndpointConfigs: AnalysisEndpointConfigs(cfg.AnalysisPerMinute),
	}
}

// AnalysisEndpointConfigs returns the stricter buckets for endpoints that call the LLM
// or fan out to job providers. perMinute <= 0 leaves them on the default bucket.
func AnalysisEndpointConfigs(perMinute int) []EndpointConfig {
	if perMinute <= 0 {
		return nil
	}
	burst := max(1, perMinute/4)
	paths := []string{
		"/api/resume/parse",
		"/api/jd/analyze",
		"/api/match",
		"/api/improve",
		"/api/analyze/full",
		"/api/analyze/full/stream",
		"/api/jobs/",
	}
	out := make([]EndpointConfig, 0, len(paths))
	for _, path := range paths {
		out = append(out, EndpointConfig{Path: path, Method: "POST", Limit: perMinute, Window: time.Minute, Burst: burst})
	}
	return out
}
