package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumex/internal/embedding"
	"github.com/jonathan/resumex/internal/types"
)

type stubProvider struct {
	name     string
	listings []types.Listing
	block    bool
	panics   bool
	calls    atomic.Int32

	mu      sync.Mutex
	queries []string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string) []types.Listing {
	s.calls.Add(1)
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if s.panics {
		panic("provider exploded")
	}
	if s.block {
		<-ctx.Done()
		return nil
	}
	out := make([]types.Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

func listingsFrom(source string, n int) []types.Listing {
	out := make([]types.Listing, n)
	for i := range out {
		out[i] = types.Listing{
			Title:       fmt.Sprintf("%s job %d", source, i),
			Description: "Go developer",
			Source:      source,
		}
	}
	return out
}

// constantEmbedder gives every text the same vector, so every score ties at 100
type constantEmbedder struct{}

func (constantEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 1, 1}, nil
}

// tableEmbedder maps exact texts to vectors; unknown text gets the default
type tableEmbedder struct {
	vectors map[string][]float32
	def     []float32
	err     error
}

func (t tableEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if t.err != nil {
		return nil, t.err
	}
	if v, ok := t.vectors[text]; ok {
		return v, nil
	}
	return t.def, nil
}

func goProfile() *types.ParsedProfile {
	return &types.ParsedProfile{
		Name:    "Ada",
		Summary: "Backend engineer",
		Skills: types.Skills{
			Languages:  []string{"Go", "Python"},
			Frameworks: []string{"gRPC", "React"},
			Tools:      []string{"Docker", "Kubernetes"},
		},
	}
}

func TestAggregator_SlowProviderDoesNotBlockOthers(t *testing.T) {
	p1 := &stubProvider{name: "one", listings: listingsFrom("one", 4)}
	p2 := &stubProvider{name: "two", block: true}
	p3 := &stubProvider{name: "three", listings: listingsFrom("three", 6)}

	agg := NewAggregator([]Provider{p1, p2, p3}, constantEmbedder{}, WithProviderTimeout(50*time.Millisecond))

	start := time.Now()
	result, err := agg.Search(context.Background(), goProfile(), 10)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, result.Jobs, 10)
	for i, job := range result.Jobs {
		assert.InDelta(t, 100.0, job.MatchScore, 1e-6)
		if i < 4 {
			assert.Equal(t, "one", job.Source, "provider one listings keep priority on ties")
		} else {
			assert.Equal(t, "three", job.Source)
		}
	}
	assert.Equal(t, "one job 0", result.Jobs[0].Title)
	assert.Equal(t, "three job 5", result.Jobs[9].Title)
}

func TestAggregator_QueryUsesTopFiveSkills(t *testing.T) {
	p := &stubProvider{name: "one"}
	agg := NewAggregator([]Provider{p}, constantEmbedder{})

	result, err := agg.Search(context.Background(), goProfile(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Python", "gRPC", "React", "Docker"}, result.QuerySkills)
	assert.Equal(t, []string{"Go Python gRPC React Docker"}, p.queries)
}

func TestAggregator_FewerThanFiveSkills(t *testing.T) {
	p := &stubProvider{name: "one"}
	agg := NewAggregator([]Provider{p}, constantEmbedder{})

	profile := &types.ParsedProfile{Skills: types.Skills{Languages: []string{"Go"}, Tools: []string{"Git"}}}
	result, err := agg.Search(context.Background(), profile, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Git"}, result.QuerySkills)
	assert.Equal(t, []string{"Go Git"}, p.queries)
	assert.Empty(t, result.Jobs)
	assert.NotNil(t, result.Jobs)
}

func TestAggregator_AllProvidersFail(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "one", panics: true},
		&stubProvider{name: "two", block: true},
		&stubProvider{name: "three"},
	}
	embedder := tableEmbedder{err: errors.New("must not be called")}
	agg := NewAggregator(providers, embedder, WithProviderTimeout(20*time.Millisecond))

	result, err := agg.Search(context.Background(), goProfile(), 10)
	require.NoError(t, err)
	assert.Empty(t, result.Jobs)
	assert.Len(t, result.QuerySkills, 5)
}

func TestAggregator_PanickingProviderIsIsolated(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "one", panics: true},
		&stubProvider{name: "two", listings: listingsFrom("two", 3)},
	}
	agg := NewAggregator(providers, constantEmbedder{})

	result, err := agg.Search(context.Background(), goProfile(), 10)
	require.NoError(t, err)
	assert.Len(t, result.Jobs, 3)
}

func TestAggregator_ZeroLimitMakesNoCalls(t *testing.T) {
	p := &stubProvider{name: "one", listings: listingsFrom("one", 2)}
	agg := NewAggregator([]Provider{p}, constantEmbedder{})

	result, err := agg.Search(context.Background(), goProfile(), 0)
	require.NoError(t, err)
	assert.Empty(t, result.Jobs)
	assert.Len(t, result.QuerySkills, 5)
	assert.Zero(t, p.calls.Load())
}

func TestAggregator_NegativeLimit(t *testing.T) {
	agg := NewAggregator(nil, constantEmbedder{})

	_, err := agg.Search(context.Background(), goProfile(), -1)
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "limit", vErr.Field)
}

func TestAggregator_NilProfile(t *testing.T) {
	agg := NewAggregator(nil, constantEmbedder{})
	_, err := agg.Search(context.Background(), nil, 10)
	assert.EqualError(t, err, "parsed profile is required")
}

func TestAggregator_TruncatesToLimit(t *testing.T) {
	p := &stubProvider{name: "one", listings: listingsFrom("one", 8)}
	agg := NewAggregator([]Provider{p}, constantEmbedder{})

	result, err := agg.Search(context.Background(), goProfile(), 3)
	require.NoError(t, err)
	assert.Len(t, result.Jobs, 3)
}

func TestAggregator_RanksBySimilarityAndKeepsNegativeScores(t *testing.T) {
	p := &stubProvider{name: "one", listings: []types.Listing{
		{Title: "Pastry chef", Description: "bake"},
		{Title: "Go engineer", Description: "services"},
		{Title: "Go intern", Description: "learn"},
	}}
	reference := "Go Python gRPC React Docker Backend engineer"
	embedder := tableEmbedder{
		vectors: map[string][]float32{
			reference:              {1, 0},
			"Pastry chef bake":     {-1, 0},
			"Go engineer services": {1, 0},
			"Go intern learn":      {1, 1},
		},
		def: []float32{0, 1},
	}
	agg := NewAggregator([]Provider{p}, embedder)

	result, err := agg.Search(context.Background(), goProfile(), 10)
	require.NoError(t, err)
	require.Len(t, result.Jobs, 3)

	assert.Equal(t, "Go engineer", result.Jobs[0].Title)
	assert.InDelta(t, 100.0, result.Jobs[0].MatchScore, 1e-6)
	assert.Equal(t, "Go intern", result.Jobs[1].Title)
	assert.InDelta(t, 70.7107, result.Jobs[1].MatchScore, 1e-3)
	assert.Equal(t, "Pastry chef", result.Jobs[2].Title)
	assert.InDelta(t, -100.0, result.Jobs[2].MatchScore, 1e-6)
}

func TestAggregator_RankingIsIdempotent(t *testing.T) {
	listings := []types.Listing{
		{Title: "Senior Go Engineer", Description: "Kubernetes Docker gRPC"},
		{Title: "Frontend Developer", Description: "React TypeScript"},
		{Title: "Data Scientist", Description: "Python pandas"},
		{Title: "Platform Engineer", Description: "Go Docker"},
	}
	newAgg := func() *Aggregator {
		p := &stubProvider{name: "one", listings: listings}
		return NewAggregator([]Provider{p}, embedding.NewHashingEmbedder(128))
	}

	first, err := newAgg().Search(context.Background(), goProfile(), 10)
	require.NoError(t, err)
	second, err := newAgg().Search(context.Background(), goProfile(), 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregator_EmbeddingFailureIsFatal(t *testing.T) {
	p := &stubProvider{name: "one", listings: listingsFrom("one", 2)}
	agg := NewAggregator([]Provider{p}, tableEmbedder{err: errors.New("quota exceeded")})

	_, err := agg.Search(context.Background(), goProfile(), 10)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quota exceeded"))
}

func TestAggregator_Providers(t *testing.T) {
	agg := NewAggregator([]Provider{&stubProvider{name: "a"}, &stubProvider{name: "b"}}, nil)
	assert.Equal(t, []string{"a", "b"}, agg.Providers())
}
