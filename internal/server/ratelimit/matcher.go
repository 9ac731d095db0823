package ratelimit

import (
	"strings"
)

// unlimited marks endpoints that are never throttled
var unlimited = &EndpointConfig{Limit: 0}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/api/jobs/" matches "/api/jobs/search").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// health checks and metric scrapes are unlimited
	if method == "GET" && (path == "/health" || path == "/metrics") {
		return unlimited
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
