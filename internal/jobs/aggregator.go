package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resumex/internal/embedding"
	"github.com/jonathan/resumex/internal/types"
)

const (
	// QuerySkillCount is how many profile skills form the search query
	QuerySkillCount = 5
	// DefaultLimit is the result count when the caller does not choose one
	DefaultLimit = 10
	// DefaultProviderTimeout bounds each provider independently
	DefaultProviderTimeout = 10 * time.Second

	embedConcurrency = 8
)

// Aggregator fans a skill query out to every provider, merges the batches in
// provider order and ranks the merged listings by embedding similarity.
type Aggregator struct {
	providers []Provider
	embedder  embedding.Embedder
	timeout   time.Duration
	log       *zap.Logger
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithProviderTimeout sets the per-provider deadline
func WithProviderTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAggregator creates an aggregator over providers, in priority order.
func NewAggregator(providers []Provider, embedder embedding.Embedder, opts ...Option) *Aggregator {
	a := &Aggregator{
		providers: providers,
		embedder:  embedder,
		timeout:   DefaultProviderTimeout,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("aggregator")
	return a
}

// Providers returns the provider names in priority order
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// Search runs one aggregation. Provider failures never surface; only an invalid
// request or an embedding failure returns an error.
func (a *Aggregator) Search(ctx context.Context, profile *types.ParsedProfile, limit int) (*types.JobSearchResult, error) {
	if profile == nil {
		return nil, errors.New("parsed profile is required")
	}
	if limit < 0 {
		return nil, &types.ValidationError{Field: "limit", Message: fmt.Sprintf("limit must be >= 0, got %d", limit)}
	}

	skills := profile.Skills.TopSkills(QuerySkillCount)
	result := &types.JobSearchResult{Jobs: []types.Listing{}, QuerySkills: skills}
	if limit == 0 {
		return result, nil
	}

	query := strings.Join(skills, " ")
	merged := a.fanOut(ctx, query)
	a.log.Info("provider fan-out complete",
		zap.String("query", query),
		zap.Int("listings", len(merged)))
	if len(merged) == 0 {
		return result, nil
	}

	if err := a.rank(ctx, profile, skills, merged); err != nil {
		return nil, err
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	result.Jobs = merged
	return result, nil
}

// fanOut queries every provider concurrently and concatenates the batches in
// provider order once all have returned or timed out.
func (a *Aggregator) fanOut(ctx context.Context, query string) []types.Listing {
	batches := make([][]types.Listing, len(a.providers))

	// plain Group: one provider's failure must not cancel the others
	var g errgroup.Group
	for i, p := range a.providers {
		g.Go(func() error {
			batches[i] = a.searchOne(ctx, p, query)
			return nil
		})
	}
	_ = g.Wait()

	var merged []types.Listing
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	return merged
}

// searchOne bounds a single provider by its own deadline. A provider that ignores
// its context is abandoned at the deadline; a panic counts as an empty batch.
func (a *Aggregator) searchOne(ctx context.Context, p Provider, query string) []types.Listing {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan []types.Listing, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("provider panicked", zap.String("provider", p.Name()), zap.Any("panic", r))
				done <- nil
			}
		}()
		done <- p.Search(ctx, query)
	}()

	select {
	case listings := <-done:
		return listings
	case <-ctx.Done():
		a.log.Warn("provider abandoned", zap.String("provider", p.Name()), zap.Error(ctx.Err()))
		return nil
	}
}

// rank scores every listing as cosine similarity * 100 against the profile's
// reference text and stable-sorts descending, so ties keep merge order.
func (a *Aggregator) rank(ctx context.Context, profile *types.ParsedProfile, skills []string, listings []types.Listing) error {
	if a.embedder == nil {
		return errors.New("no embedder configured")
	}

	reference, err := a.embedder.Embed(ctx, strings.Join(skills, " ")+" "+profile.Summary)
	if err != nil {
		return fmt.Errorf("embedding profile: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i := range listings {
		g.Go(func() error {
			vec, err := a.embedder.Embed(gctx, listings[i].Title+" "+listings[i].Description)
			if err != nil {
				return fmt.Errorf("embedding listing %q: %w", listings[i].Title, err)
			}
			score, err := embedding.Cosine(reference, vec)
			if err != nil {
				return err
			}
			listings[i].MatchScore = score * 100
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].MatchScore > listings[j].MatchScore
	})
	return nil
}
