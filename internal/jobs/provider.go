// Package jobs queries external job boards concurrently and ranks the merged
// listings against a candidate profile.
package jobs

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/jonathan/resumex/internal/config"
	"github.com/jonathan/resumex/internal/fetch"
	"github.com/jonathan/resumex/internal/observability"
	"github.com/jonathan/resumex/internal/types"
)

// resultsPerProvider is how many listings one search asks each board for
const resultsPerProvider = 10

// Provider searches one job board. Search never fails: any error, timeout or
// missing credential yields an empty slice.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) []types.Listing
}

// Deps are the collaborators shared by every provider adapter.
type Deps struct {
	Breaker    config.BreakerConfig
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Providers builds the configured adapters in priority order: Adzuna, JSearch,
// Remotive, then HeadHunter when enabled.
func Providers(cfg config.JobsConfig, deps Deps) []Provider {
	providers := []Provider{
		NewAdzuna(cfg.Adzuna, deps),
		NewJSearch(cfg.JSearch, deps),
		NewRemotive(cfg.Remotive, deps),
	}
	if cfg.HeadHunter.Enabled {
		providers = append(providers, NewHeadHunter(cfg.HeadHunter, deps))
	}
	return providers
}

type searchFunc func(ctx context.Context, query string) ([]types.Listing, error)

// source runs one provider's request behind its circuit breaker and turns every
// outcome into listings plus a metric and a log line.
type source struct {
	name    string
	breaker *gobreaker.CircuitBreaker[[]types.Listing]
	metrics *observability.Metrics
	log     *zap.Logger
	client  *http.Client
}

func newSource(name string, deps Deps) *source {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &source{
		name:    name,
		metrics: deps.Metrics,
		log:     log.Named("jobs").With(zap.String("provider", name)),
		client:  deps.HTTPClient,
	}

	cfg := deps.Breaker
	if !cfg.Enabled {
		return s
	}
	s.breaker = gobreaker.NewCircuitBreaker[[]types.Listing](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		// caller cancellation is not a provider failure; provider deadlines are
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Info("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			s.metrics.SetBreakerState(name, int(to))
		},
	})
	return s
}

func (s *source) options(opts fetch.Options) *fetch.Options {
	opts.Client = s.client
	return &opts
}

// run executes fn unless the provider is unconfigured, normalizes the listings
// and swallows every failure.
func (s *source) run(ctx context.Context, query string, configured bool, fn searchFunc) []types.Listing {
	if !configured {
		s.log.Debug("provider not configured, skipping")
		s.metrics.ObserveProvider(s.name, observability.OutcomeSkipped, 0, 0)
		return []types.Listing{}
	}

	start := time.Now()
	var (
		listings []types.Listing
		err      error
	)
	if s.breaker != nil {
		listings, err = s.breaker.Execute(func() ([]types.Listing, error) { return fn(ctx, query) })
	} else {
		listings, err = fn(ctx, query)
	}
	elapsed := time.Since(start)

	if err != nil {
		outcome := observability.OutcomeError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = observability.OutcomeBreakerOpen
		case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
			outcome = observability.OutcomeTimeout
		}
		s.log.Warn("provider search failed",
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		s.metrics.ObserveProvider(s.name, outcome, elapsed, 0)
		return []types.Listing{}
	}

	out := make([]types.Listing, 0, len(listings))
	for _, l := range listings {
		out = append(out, s.normalize(l))
	}
	s.log.Debug("provider search complete",
		zap.Int("listings", len(out)),
		zap.Duration("elapsed", elapsed))
	s.metrics.ObserveProvider(s.name, observability.OutcomeOK, elapsed, len(out))
	return out
}

func (s *source) normalize(l types.Listing) types.Listing {
	l.Title = strings.TrimSpace(l.Title)
	l.Company = strings.TrimSpace(l.Company)
	l.Location = strings.TrimSpace(l.Location)
	l.Salary = strings.TrimSpace(l.Salary)
	l.Description = types.TruncateDescription(fetch.PlainText(l.Description))
	l.MatchScore = 0
	l.Source = s.name
	return l
}

// joinNonEmpty joins the non-blank parts with sep
func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
