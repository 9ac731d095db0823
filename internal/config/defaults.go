package config

import (
	"time"

	"github.com/spf13/viper"
)

// SetDefaults registers default configuration values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.models", map[string]string{
		"lite":     "gemini-2.0-flash-lite",
		"standard": "gemini-2.0-flash",
		"advanced": "gemini-2.5-pro",
	})
	v.SetDefault("llm.parse_temperature", 0.2)
	v.SetDefault("llm.match_temperature", 0.3)
	v.SetDefault("llm.suggest_temperature", 0.5)
	v.SetDefault("llm.timeout", 90*time.Second)

	v.SetDefault("embedding.backend", "")
	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("embedding.dimensions", 384)

	v.SetDefault("jobs.default_limit", 10)
	v.SetDefault("jobs.provider_timeout", 10*time.Second)
	v.SetDefault("jobs.breaker.enabled", true)
	v.SetDefault("jobs.breaker.max_requests", 1)
	v.SetDefault("jobs.breaker.interval", 60*time.Second)
	v.SetDefault("jobs.breaker.timeout", 30*time.Second)
	v.SetDefault("jobs.breaker.min_requests", 3)
	v.SetDefault("jobs.breaker.failure_threshold", 0.6)

	v.SetDefault("jobs.adzuna.app_id", "")
	v.SetDefault("jobs.adzuna.api_key", "")
	v.SetDefault("jobs.adzuna.base_url", "https://api.adzuna.com/v1/api/jobs")
	v.SetDefault("jobs.adzuna.country", "us")
	v.SetDefault("jobs.jsearch.api_key", "")
	v.SetDefault("jobs.jsearch.base_url", "https://jsearch.p.rapidapi.com")
	v.SetDefault("jobs.jsearch.host", "jsearch.p.rapidapi.com")
	v.SetDefault("jobs.remotive.base_url", "https://remotive.com/api/remote-jobs")
	v.SetDefault("jobs.headhunter.enabled", false)
	v.SetDefault("jobs.headhunter.base_url", "https://api.hh.ru")
	v.SetDefault("jobs.headhunter.area", "")
	v.SetDefault("jobs.headhunter.user_agent", "resumex/1.0")
	v.SetDefault("jobs.headhunter.token", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.max_upload_bytes", int64(10<<20))
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests_per_second", 2.0)
	v.SetDefault("server.rate_limit.burst", 10)
	v.SetDefault("server.rate_limit.analysis_per_minute", 20)
	v.SetDefault("server.rate_limit.whitelist", []string{})

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Default returns a Config populated only from defaults
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}
