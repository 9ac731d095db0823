// Package app wires configuration into the analysis pipeline, the job aggregator
// and their shared collaborators. The CLI and the HTTP server both start here.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resumex/internal/config"
	"github.com/jonathan/resumex/internal/embedding"
	"github.com/jonathan/resumex/internal/fetch"
	"github.com/jonathan/resumex/internal/jobs"
	"github.com/jonathan/resumex/internal/llm"
	"github.com/jonathan/resumex/internal/observability"
	"github.com/jonathan/resumex/internal/parsing"
	"github.com/jonathan/resumex/internal/pipeline"
	"github.com/jonathan/resumex/internal/schemas"
	"github.com/jonathan/resumex/internal/types"
)

// App holds the long-lived collaborators. It is safe for concurrent use; every
// pipeline run gets its own State.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Analyzer   *parsing.Analyzer
	Aggregator *jobs.Aggregator
	Pipeline   *pipeline.Pipeline

	fetchOpts *fetch.Options
	embedder  embedding.Embedder
	closers   []func() error
}

// Option overrides a collaborator, mostly for tests
type Option func(*options)

type options struct {
	extractor  parsing.Extractor
	providers  []jobs.Provider
	embedder   embedding.Embedder
	httpClient *http.Client
	metrics    *observability.Metrics
}

// WithExtractor replaces the LLM-backed extractor
func WithExtractor(e parsing.Extractor) Option {
	return func(o *options) { o.extractor = e }
}

// WithProviders replaces the configured job providers
func WithProviders(p ...jobs.Provider) Option {
	return func(o *options) { o.providers = p }
}

// WithEmbedder replaces the configured embedding backend
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithHTTPClient sets the client used for job boards and posting fetches
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMetrics shares a metrics registry instead of creating one
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New builds an App from cfg. A missing Gemini key is not an error: analysis
// calls then fail at run time with an APICallError, and ranking falls back to
// the hashing embedder.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:    cfg,
		Logger:    log,
		Metrics:   o.metrics,
		fetchOpts: &fetch.Options{Client: o.httpClient},
	}
	if a.Metrics == nil {
		a.Metrics = observability.NewMetrics()
	}

	extractor := o.extractor
	if extractor == nil {
		var err error
		extractor, err = a.newExtractor(ctx)
		if err != nil {
			return nil, err
		}
	}
	a.Analyzer = parsing.NewAnalyzer(extractor)

	a.embedder = o.embedder
	if a.embedder == nil {
		lazy := embedding.NewLazy(a.embeddingFactory())
		a.embedder = lazy
		a.closers = append(a.closers, lazy.Close)
	}

	providers := o.providers
	if providers == nil {
		providers = jobs.Providers(cfg.Jobs, jobs.Deps{
			Breaker:    cfg.Jobs.Breaker,
			Metrics:    a.Metrics,
			Logger:     log,
			HTTPClient: o.httpClient,
		})
	}
	a.Aggregator = jobs.NewAggregator(providers, a.embedder,
		jobs.WithProviderTimeout(cfg.Jobs.ProviderTimeout),
		jobs.WithLogger(log),
	)

	engine := pipeline.NewEngine(pipeline.WithEngineLogger(log), pipeline.WithMetrics(a.Metrics))
	a.Pipeline = pipeline.New(engine, a.Analyzer, a.Aggregator)

	log.Info("app initialized",
		zap.String("embedding_backend", cfg.EmbeddingBackend()),
		zap.Strings("job_providers", a.Aggregator.Providers()),
		zap.Bool("llm_configured", cfg.LLM.APIKey != ""),
	)
	return a, nil
}

func (a *App) newExtractor(ctx context.Context) (parsing.Extractor, error) {
	if a.Config.LLM.APIKey == "" {
		return missingKeyExtractor{}, nil
	}
	client, err := llm.NewClient(ctx, llm.ConfigFromModels(a.Config.LLM.Models), a.Config.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	temps := parsing.Temperatures{
		Parse:   a.Config.LLM.ParseTemperature,
		Match:   a.Config.LLM.MatchTemperature,
		Suggest: a.Config.LLM.SuggestTemperature,
	}
	return parsing.NewLLMExtractor(client, temps, a.Config.LLM.Timeout, a.Logger), nil
}

func (a *App) embeddingFactory() embedding.Factory {
	cfg := a.Config
	return func(ctx context.Context) (embedding.Embedder, error) {
		switch cfg.EmbeddingBackend() {
		case "gemini":
			return embedding.NewGeminiEmbedder(ctx, cfg.LLM.APIKey, cfg.Embedding.Model)
		default:
			return embedding.NewHashingEmbedder(cfg.Embedding.Dimensions), nil
		}
	}
}

// missingKeyExtractor fails every call so the stage error names the missing key
type missingKeyExtractor struct{}

func (missingKeyExtractor) Extract(context.Context, schemas.Kind, string) (json.RawMessage, error) {
	return nil, &parsing.APICallError{Message: "GEMINI_API_KEY is not configured"}
}

// ResolveJD returns job description text given either the text itself or the URL
// of a posting to fetch. Text wins when both are set.
func (a *App) ResolveJD(ctx context.Context, text, postingURL string) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if strings.TrimSpace(postingURL) == "" {
		return "", &types.ValidationError{Field: "jd", Message: "jd_text or jd_url is required"}
	}
	jd, err := fetch.PostingText(ctx, postingURL, a.fetchOpts)
	if err != nil {
		return "", fmt.Errorf("failed to fetch job posting: %w", err)
	}
	a.Logger.Debug("fetched job posting",
		zap.String("board", string(fetch.DetectBoard(postingURL))),
		zap.Int("chars", len(jd)),
	)
	return jd, nil
}

// Close releases the LLM client and the embedder
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
