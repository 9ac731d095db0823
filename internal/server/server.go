package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resumex/internal/app"
	"github.com/jonathan/resumex/internal/server/middleware"
	"github.com/jonathan/resumex/internal/server/ratelimit"
)

// shutdownTimeout bounds graceful shutdown
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	app         *app.App
	log         *zap.Logger
	httpServer  *http.Server
	rateLimiter *ratelimit.Limiter
	maxUpload   int64
}

// New creates a new server instance around an initialized App
func New(a *app.App) *Server {
	cfg := a.Config.Server
	s := &Server{
		app:         a,
		log:         a.Logger.Named("server"),
		rateLimiter: ratelimit.NewLimiter(ratelimit.FromConfig(cfg.RateLimit)),
		maxUpload:   cfg.MaxUploadBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", a.Metrics.Handler())

	mux.HandleFunc("POST /api/resume/parse", s.handleParseResume)
	mux.HandleFunc("POST /api/jd/analyze", s.handleAnalyzeJD)
	mux.HandleFunc("POST /api/match", s.handleMatch)
	mux.HandleFunc("POST /api/improve", s.handleImprove)
	mux.HandleFunc("POST /api/analyze/full", s.handleFullAnalysis)
	mux.HandleFunc("POST /api/analyze/full/stream", s.handleFullAnalysisStream)
	mux.HandleFunc("POST /api/jobs/search", s.handleJobSearch)
	mux.HandleFunc("POST /api/jobs/search-from-parsed", s.handleJobSearchFromParsed)

	s.httpServer = &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Logging(a.Logger),
			middleware.Recover(s.log),
			middleware.CORS(cfg.AllowedOrigins),
			s.withRateLimit,
		),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout, // long enough for a full analysis
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the IP address from RemoteAddr
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	retryAfter := int(info.RetryAfter.Round(time.Second).Seconds())
	if info.RetryAfter > 0 {
		retryAfter = max(1, retryAfter)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}

	s.log.Warn("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit),
		zap.Duration("retry_after", info.RetryAfter),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"success":     false,
		"error":       "rate_limit_exceeded",
		"message":     "Rate limit exceeded. Please try again later.",
		"limit":       info.Limit,
		"retry_after": retryAfter,
		"reset_at":    info.ResetTime.Format(time.RFC3339),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("error encoding JSON response", zap.Error(err))
	}
}

// errorResponse writes an error envelope with the status mapped from err
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.errorMessage(w, HTTPStatus(err), err.Error())
}

func (s *Server) errorMessage(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}
