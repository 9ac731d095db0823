package parsing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumex/internal/llm"
	"github.com/jonathan/resumex/internal/schemas"
)

// fakeClient returns canned model output and records the last request
type fakeClient struct {
	output string
	err    error
	last   llm.Request
	calls  int
}

func (f *fakeClient) GenerateJSON(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("expected a deadline")
	}
	return f.output, nil
}

func (f *fakeClient) GetModel(tier llm.ModelTier) string { return "fake-" + string(tier) }
func (f *fakeClient) Close() error                       { return nil }

func TestRecover(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{name: "bare object", raw: `{"a": 1}`, want: `{"a": 1}`},
		{name: "fenced json block", raw: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "fenced block without tag", raw: "```\n{\"a\": {\"b\": [1, 2]}}\n```", want: `{"a": {"b": [1, 2]}}`},
		{name: "trailing commentary", raw: "{\"a\": 1}\n\nLet me know if you need anything else!", want: `{"a": 1}`},
		{name: "trailing commentary inside fence", raw: "```json\n{\"a\": 1} done\n```", want: `{"a": 1}`},
		{name: "leading commentary", raw: "Here is the JSON:\n{\"a\": 1}", wantErr: "does not start with a JSON object"},
		{name: "leading commentary before fence", raw: "Sure!\n```json\n{\"a\": 1}\n```", wantErr: "does not start with a JSON object"},
		{name: "array root", raw: `[{"a": 1}]`, wantErr: "does not start with a JSON object"},
		{name: "empty", raw: "   ", wantErr: "empty output"},
		{name: "empty fence", raw: "```json\n```", wantErr: "empty output"},
		{name: "truncated object", raw: `{"a": [1, 2`, wantErr: "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Recover(schemas.KindMatch, tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				var malformed *MalformedOutputError
				require.True(t, errors.As(err, &malformed))
				assert.Equal(t, schemas.KindMatch, malformed.Kind)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(payload))
		})
	}
}

func TestLLMExtractor_Extract(t *testing.T) {
	client := &fakeClient{output: "```json\n{\"title\": \"Backend Engineer\", \"required_skills\": [\"Go\"]}\n```"}
	extractor := NewLLMExtractor(client, Temperatures{Parse: 0.2, Match: 0.3, Suggest: 0.5}, time.Second, nil)

	payload, err := extractor.Extract(context.Background(), schemas.KindRequirements, "We need a Go engineer")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Backend Engineer", "required_skills": ["Go"]}`, string(payload))

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, llm.TierStandard, client.last.Tier)
	assert.InDelta(t, 0.2, client.last.Temperature, 1e-6)
	assert.Contains(t, client.last.Prompt, "We need a Go engineer")
	assert.NotEmpty(t, client.last.System)
}

func TestLLMExtractor_TemperatureByKind(t *testing.T) {
	client := &fakeClient{output: `{"improvements": []}`}
	extractor := NewLLMExtractor(client, Temperatures{Parse: 0.2, Match: 0.3, Suggest: 0.5}, time.Second, nil)

	_, err := extractor.Extract(context.Background(), schemas.KindImprovements, "input")
	require.NoError(t, err)
	assert.Equal(t, llm.TierAdvanced, client.last.Tier)
	assert.InDelta(t, 0.5, client.last.Temperature, 1e-6)
}

func TestLLMExtractor_SchemaViolation(t *testing.T) {
	client := &fakeClient{output: `{"ats_score": "very good", "matched_skills": [], "missing_skills": []}`}
	extractor := NewLLMExtractor(client, Temperatures{}, time.Second, nil)

	_, err := extractor.Extract(context.Background(), schemas.KindMatch, "input")
	require.Error(t, err)

	var malformed *MalformedOutputError
	require.True(t, errors.As(err, &malformed))
	var schemaErr *schemas.ValidationError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestLLMExtractor_LeadingCommentaryIsFatal(t *testing.T) {
	client := &fakeClient{output: "Based on the resume, here you go: {\"name\": \"Ada\"}"}
	extractor := NewLLMExtractor(client, Temperatures{}, time.Second, nil)

	_, err := extractor.Extract(context.Background(), schemas.KindProfile, "resume")
	var malformed *MalformedOutputError
	assert.True(t, errors.As(err, &malformed))
}

func TestLLMExtractor_APIError(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	extractor := NewLLMExtractor(client, Temperatures{}, time.Second, nil)

	_, err := extractor.Extract(context.Background(), schemas.KindProfile, "resume")
	require.Error(t, err)

	var apiErr *APICallError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLLMExtractor_UnknownKind(t *testing.T) {
	client := &fakeClient{output: `{}`}
	extractor := NewLLMExtractor(client, Temperatures{}, time.Second, nil)

	_, err := extractor.Extract(context.Background(), schemas.Kind("cover_letter"), "x")
	assert.Error(t, err)
	assert.Equal(t, 0, client.calls)
}
