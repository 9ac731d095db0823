// Package parsing turns documents into structured profiles, requirement analyses,
// match results and improvement sets by way of a structured extractor.
package parsing

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resumex/internal/llm"
	"github.com/jonathan/resumex/internal/logger"
	"github.com/jonathan/resumex/internal/prompts"
	"github.com/jonathan/resumex/internal/schemas"
)

// Extractor turns free text into a JSON object conforming to the schema for kind.
// Failures are *APICallError or *MalformedOutputError.
type Extractor interface {
	Extract(ctx context.Context, kind schemas.Kind, input string) (json.RawMessage, error)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(ctx context.Context, kind schemas.Kind, input string) (json.RawMessage, error)

// Extract calls f
func (f ExtractorFunc) Extract(ctx context.Context, kind schemas.Kind, input string) (json.RawMessage, error) {
	return f(ctx, kind, input)
}

// Temperatures per group of stages
type Temperatures struct {
	Parse   float32
	Match   float32
	Suggest float32
}

type kindSettings struct {
	promptKey   string
	tier        llm.ModelTier
	temperature float32
}

// LLMExtractor is the Extractor backed by an llm.Client
type LLMExtractor struct {
	client   llm.Client
	settings map[schemas.Kind]kindSettings
	timeout  time.Duration
	logger   *zap.Logger
}

// NewLLMExtractor builds an extractor. A zero timeout leaves calls bounded only by ctx.
func NewLLMExtractor(client llm.Client, temps Temperatures, timeout time.Duration, log *zap.Logger) *LLMExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMExtractor{
		client: client,
		settings: map[schemas.Kind]kindSettings{
			schemas.KindProfile:      {promptKey: "parse-resume", tier: llm.TierStandard, temperature: temps.Parse},
			schemas.KindRequirements: {promptKey: "analyze-jd", tier: llm.TierStandard, temperature: temps.Parse},
			schemas.KindMatch:        {promptKey: "match", tier: llm.TierAdvanced, temperature: temps.Match},
			schemas.KindImprovements: {promptKey: "improve", tier: llm.TierAdvanced, temperature: temps.Suggest},
		},
		timeout: timeout,
		logger:  log.Named("extractor"),
	}
}

// Extract renders the prompt for kind, calls the model and recovers a schema-valid payload
func (e *LLMExtractor) Extract(ctx context.Context, kind schemas.Kind, input string) (json.RawMessage, error) {
	settings, ok := e.settings[kind]
	if !ok {
		return nil, &MalformedOutputError{Kind: kind, Message: "no prompt for kind"}
	}

	system, prompt, err := prompts.Render(settings.promptKey, input)
	if err != nil {
		return nil, &APICallError{Message: "failed to render prompt", Cause: err}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.client.GenerateJSON(ctx, llm.Request{
		Prompt:      prompt,
		System:      system,
		Tier:        settings.tier,
		Temperature: settings.temperature,
	})
	if err != nil {
		return nil, &APICallError{Message: "failed to generate content from LLM", Cause: err}
	}
	e.logger.Debug("model responded",
		zap.String("kind", string(kind)),
		zap.String("model", e.client.GetModel(settings.tier)),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("output", logger.Truncate(raw, 200)))

	payload, err := Recover(kind, raw)
	if err != nil {
		return nil, err
	}
	if err := schemas.Validate(kind, payload); err != nil {
		return nil, &MalformedOutputError{Kind: kind, Message: "payload does not match schema", Cause: err}
	}
	return payload, nil
}

// Recover extracts the JSON object from raw model output.
// Exactly two wrappers are tolerated: a markdown code fence around the object,
// and trailing text after the object. Leading commentary, non-object roots and
// truncated JSON are rejected.
func Recover(kind schemas.Kind, raw string) (json.RawMessage, error) {
	text, _ := llm.StripCodeFence(raw)
	if text == "" {
		return nil, &MalformedOutputError{Kind: kind, Message: "empty output"}
	}
	if text[0] != '{' {
		return nil, &MalformedOutputError{Kind: kind, Message: "output does not start with a JSON object"}
	}

	var payload json.RawMessage
	if err := json.NewDecoder(strings.NewReader(text)).Decode(&payload); err != nil {
		return nil, &MalformedOutputError{Kind: kind, Message: "invalid JSON", Cause: err}
	}
	return payload, nil
}
