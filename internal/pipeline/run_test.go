package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumex/internal/ingestion"
	"github.com/jonathan/resumex/internal/llm"
	"github.com/jonathan/resumex/internal/parsing"
	"github.com/jonathan/resumex/internal/schemas"
	"github.com/jonathan/resumex/internal/types"
)

// echoAnalysis is a deterministic stand-in for the LLM calls: matching echoes
// the overlap between profile skills and required skills.
type echoAnalysis struct {
	profile      *types.ParsedProfile
	requirements *types.RequirementAnalysis
	parseErr     error
	resumeText   string
}

func (e *echoAnalysis) ParseResume(_ context.Context, text string) (*types.ParsedProfile, error) {
	e.resumeText = text
	if e.parseErr != nil {
		return nil, e.parseErr
	}
	return e.profile, nil
}

func (e *echoAnalysis) AnalyzeRequirements(context.Context, string) (*types.RequirementAnalysis, error) {
	return e.requirements, nil
}

func (e *echoAnalysis) ComputeMatch(_ context.Context, p *types.ParsedProfile, r *types.RequirementAnalysis) (*types.MatchResult, error) {
	have := slices.Concat(p.Skills.Languages, p.Skills.Frameworks, p.Skills.Tools)
	matched, missing := []string{}, []string{}
	for _, skill := range r.RequiredSkills {
		if slices.Contains(have, skill) {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	overlap := 100 * float64(len(matched)) / float64(len(r.RequiredSkills))
	return &types.MatchResult{
		ATSScore:            types.ClampScore(overlap),
		SkillOverlapPercent: overlap,
		MatchedSkills:       matched,
		MissingSkills:       missing,
	}, nil
}

func (e *echoAnalysis) SuggestImprovements(_ context.Context, _ *types.ParsedProfile, _ *types.RequirementAnalysis, m *types.MatchResult) (*types.ImprovementSet, error) {
	return &types.ImprovementSet{MissingKeywords: m.MissingSkills}, nil
}

type stubSearcher struct {
	result *types.JobSearchResult
	err    error
	limit  int
}

func (s *stubSearcher) Search(_ context.Context, _ *types.ParsedProfile, limit int) (*types.JobSearchResult, error) {
	s.limit = limit
	return s.result, s.err
}

func goOnlyAnalysis() *echoAnalysis {
	return &echoAnalysis{
		profile: &types.ParsedProfile{
			Name:   "Ada",
			Skills: types.Skills{Languages: []string{"Go"}, Frameworks: []string{}, Tools: []string{}, SoftSkills: []string{}},
		},
		requirements: &types.RequirementAnalysis{Title: "Backend Engineer", RequiredSkills: []string{"Go", "Rust"}},
	}
}

var resume = []byte("Ada Lovelace\nGo engineer\n")

func TestRunFullAnalysis_EndToEnd(t *testing.T) {
	analysis := goOnlyAnalysis()
	p := New(nil, analysis, nil)

	state, err := p.RunFullAnalysis(context.Background(), resume, "ada.txt", "Backend Engineer: Go, Rust")
	require.NoError(t, err)

	require.False(t, state.Failed(), state.Error)
	assert.Equal(t, "improved", state.CurrentStage)
	assert.Equal(t, "Ada Lovelace\nGo engineer", analysis.resumeText)
	require.NotNil(t, state.Match)
	assert.Equal(t, []string{"Go"}, state.Match.MatchedSkills)
	assert.Equal(t, []string{"Rust"}, state.Match.MissingSkills)
	assert.Equal(t, 50, state.Match.ATSScore)
	require.NotNil(t, state.Improvements)
	assert.Equal(t, []string{"Rust"}, state.Improvements.MissingKeywords)
	assert.Nil(t, state.Jobs)
}

func TestRunFullAnalysis_WithAnalyzerClampsScore(t *testing.T) {
	payloads := map[schemas.Kind]string{
		schemas.KindProfile:      `{"name": "Ada", "skills": {"languages": ["Go"]}}`,
		schemas.KindRequirements: `{"title": "Backend Engineer", "required_skills": ["Go", "Rust"]}`,
		schemas.KindMatch:        `{"ats_score": 140, "skill_overlap_percent": -3, "keyword_coverage": 100, "matched_skills": ["Go"], "missing_skills": ["Rust"]}`,
		schemas.KindImprovements: `{"improvements": [{"section": "skills", "suggested": "Add Rust", "severity": "HIGH"}]}`,
	}
	extractor := parsing.ExtractorFunc(func(_ context.Context, kind schemas.Kind, _ string) (json.RawMessage, error) {
		return json.RawMessage(payloads[kind]), nil
	})
	p := New(nil, parsing.NewAnalyzer(extractor), nil)

	state, err := p.RunFullAnalysis(context.Background(), resume, "ada.txt", "Go, Rust")
	require.NoError(t, err)
	require.False(t, state.Failed(), state.Error)

	assert.Equal(t, 100, state.Match.ATSScore)
	assert.Equal(t, 0.0, state.Match.SkillOverlapPercent)
	assert.Equal(t, 100.0, state.Match.KeywordCoverage)
	assert.Equal(t, types.SeverityHigh, state.Improvements.Improvements[0].Severity)
}

func TestRunFullAnalysis_ExtractionFailureStopsRun(t *testing.T) {
	malformed := &parsing.MalformedOutputError{Kind: schemas.KindRequirements, Message: "not JSON"}
	extractor := parsing.ExtractorFunc(func(_ context.Context, kind schemas.Kind, _ string) (json.RawMessage, error) {
		switch kind {
		case schemas.KindProfile:
			return json.RawMessage(`{"name": "Ada"}`), nil
		case schemas.KindRequirements:
			return nil, malformed
		}
		t.Fatalf("stage for %s must not run", kind)
		return nil, nil
	})
	p := New(nil, parsing.NewAnalyzer(extractor), nil)

	state, err := p.RunFullAnalysis(context.Background(), resume, "ada.txt", "Go, Rust")
	require.NoError(t, err)

	assert.Equal(t, "JD analysis failed: "+malformed.Error(), state.Error)
	assert.Equal(t, "resume_parsed", state.CurrentStage)
	assert.NotNil(t, state.Profile)
	assert.Nil(t, state.Requirements)
	assert.Nil(t, state.Match)
	assert.ErrorAs(t, state.Cause, &malformed)
}

func TestRunResumeOnly_UnsupportedFormat(t *testing.T) {
	p := New(nil, goOnlyAnalysis(), nil)

	state, err := p.RunResumeOnly(context.Background(), []byte("binary"), "resume.doc")
	require.NoError(t, err)

	assert.Contains(t, state.Error, "Resume parsing failed: ")
	var unsupported *ingestion.UnsupportedFormatError
	assert.ErrorAs(t, state.Cause, &unsupported)
	assert.Nil(t, state.Profile)
}

func TestRunResumeOnly_EmptyFile(t *testing.T) {
	p := New(nil, goOnlyAnalysis(), nil)

	state, err := p.RunResumeOnly(context.Background(), nil, "resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Resume parsing failed: resume file is required", state.Error)
}

func TestRunResumeOnly_ParseError(t *testing.T) {
	analysis := goOnlyAnalysis()
	analysis.parseErr = &parsing.APICallError{Message: "gemini unreachable"}
	p := New(nil, analysis, nil)

	state, err := p.RunResumeOnly(context.Background(), resume, "ada.txt")
	require.NoError(t, err)
	assert.Contains(t, state.Error, "Resume parsing failed: ")
	assert.Contains(t, state.Error, "gemini unreachable")
	assert.Equal(t, InitialStage, state.CurrentStage)
}

func TestRunJobSearch(t *testing.T) {
	searcher := &stubSearcher{result: &types.JobSearchResult{
		Jobs:        []types.Listing{{Title: "Go Engineer", MatchScore: 91}},
		QuerySkills: []string{"Go"},
	}}
	p := New(nil, goOnlyAnalysis(), searcher)

	state, err := p.RunJobSearch(context.Background(), resume, "ada.txt", 7)
	require.NoError(t, err)
	require.False(t, state.Failed(), state.Error)

	assert.Equal(t, "jobs_found", state.CurrentStage)
	assert.Equal(t, 7, searcher.limit)
	assert.Equal(t, "Go Engineer", state.Jobs.Jobs[0].Title)
	assert.Nil(t, state.Match)
}

func TestRunJobSearch_AggregationFailure(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("embedding profile: quota exceeded")}
	p := New(nil, goOnlyAnalysis(), searcher)

	state, err := p.RunJobSearch(context.Background(), resume, "ada.txt", 10)
	require.NoError(t, err)
	assert.Equal(t, "Job search failed: embedding profile: quota exceeded", state.Error)
	assert.NotNil(t, state.Profile)
	assert.Nil(t, state.Jobs)
}

func TestRunJobSearch_NegativeLimitRejectedUpFront(t *testing.T) {
	analysis := goOnlyAnalysis()
	p := New(nil, analysis, &stubSearcher{})

	state, err := p.RunJobSearch(context.Background(), resume, "ada.txt", -1)
	assert.Nil(t, state)
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, analysis.resumeText, "no stage may run")
}

func TestRunJobSearch_NotConfigured(t *testing.T) {
	p := New(nil, goOnlyAnalysis(), nil)
	_, err := p.RunJobSearch(context.Background(), resume, "ada.txt", 10)
	assert.EqualError(t, err, "job search is not configured")
}

func TestRunRequirements(t *testing.T) {
	p := New(nil, goOnlyAnalysis(), nil)

	state, err := p.RunRequirements(context.Background(), "Go, Rust")
	require.NoError(t, err)
	assert.Equal(t, "jd_analyzed", state.CurrentStage)
	assert.Equal(t, "Backend Engineer", state.Requirements.Title)

	state, err = p.RunRequirements(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "JD analysis failed: job description text is required", state.Error)
}

func TestRunMatch_ValidatesInputs(t *testing.T) {
	analysis := goOnlyAnalysis()
	p := New(nil, analysis, nil)

	noCompany := &types.ParsedProfile{Name: "Ada", Experience: []types.Experience{{Title: "Engineer"}}}
	_, err := p.RunMatch(context.Background(), noCompany, analysis.requirements)
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "resume", vErr.Field)

	_, err = p.RunMatch(context.Background(), analysis.profile, nil)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "jd", vErr.Field)

	state, err := p.RunMatch(context.Background(), analysis.profile, analysis.requirements)
	require.NoError(t, err)
	assert.Equal(t, "matched", state.CurrentStage)
	assert.Equal(t, []string{"Go"}, state.Match.MatchedSkills)
}

// tierModel answers every request for a model tier with the same text.
type tierModel map[llm.ModelTier]string

func (m tierModel) GenerateJSON(_ context.Context, req llm.Request) (string, error) {
	return m[req.Tier], nil
}

func (m tierModel) GetModel(tier llm.ModelTier) string { return "canned-" + string(tier) }
func (m tierModel) Close() error                       { return nil }

func TestRunMatch_AcceptsSchemaValidProfile(t *testing.T) {
	model := tierModel{
		llm.TierStandard: `{"name": "", "email": "N/A", "experience": [{"company": "Acme", "title": "Freelance developer"}]}`,
		llm.TierAdvanced: `{"ats_score": 70, "matched_skills": ["Go"], "missing_skills": []}`,
	}
	p := New(nil, parsing.NewAnalyzer(parsing.NewLLMExtractor(model, parsing.Temperatures{}, 0, nil)), nil)

	parsed, err := p.RunResumeOnly(context.Background(), resume, "ada.txt")
	require.NoError(t, err)
	require.False(t, parsed.Failed(), parsed.Error)
	assert.Equal(t, "N/A", parsed.Profile.Email)

	state, err := p.RunMatch(context.Background(), parsed.Profile, &types.RequirementAnalysis{RequiredSkills: []string{"Go"}})
	require.NoError(t, err)
	require.False(t, state.Failed(), state.Error)
	assert.Equal(t, 70, state.Match.ATSScore)
}

func TestRunResumeOnly_RejectsExperienceWithoutCompany(t *testing.T) {
	model := tierModel{llm.TierStandard: `{"name": "Ada", "experience": [{"title": "Engineer"}]}`}
	p := New(nil, parsing.NewAnalyzer(parsing.NewLLMExtractor(model, parsing.Temperatures{}, 0, nil)), nil)

	state, err := p.RunResumeOnly(context.Background(), resume, "ada.txt")
	require.NoError(t, err)
	require.True(t, state.Failed())
	assert.Contains(t, state.Error, "Resume parsing failed")

	var malformed *parsing.MalformedOutputError
	require.ErrorAs(t, state.Cause, &malformed)
	assert.Equal(t, schemas.KindProfile, malformed.Kind)
}

func TestRunImprove_ValidatesMatch(t *testing.T) {
	analysis := goOnlyAnalysis()
	p := New(nil, analysis, nil)

	_, err := p.RunImprove(context.Background(), analysis.profile, analysis.requirements, &types.MatchResult{ATSScore: 101})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "match", vErr.Field)

	state, err := p.RunImprove(context.Background(), analysis.profile, analysis.requirements, &types.MatchResult{ATSScore: 40, MissingSkills: []string{"Rust"}})
	require.NoError(t, err)
	assert.Equal(t, "improved", state.CurrentStage)
	assert.Equal(t, []string{"Rust"}, state.Improvements.MissingKeywords)
}

func TestRunJobSearchFromProfile(t *testing.T) {
	analysis := goOnlyAnalysis()
	searcher := &stubSearcher{result: &types.JobSearchResult{Jobs: []types.Listing{}, QuerySkills: []string{"Go"}}}
	p := New(nil, analysis, searcher)

	state, err := p.RunJobSearchFromProfile(context.Background(), analysis.profile, 0)
	require.NoError(t, err)
	assert.Equal(t, "jobs_found", state.CurrentStage)
	assert.Equal(t, 0, searcher.limit)

	_, err = p.RunJobSearchFromProfile(context.Background(), analysis.profile, -2)
	assert.Error(t, err)
}

func TestRun_ProgressOption(t *testing.T) {
	var steps []string
	p := New(nil, goOnlyAnalysis(), nil)

	_, err := p.RunFullAnalysis(context.Background(), resume, "ada.txt", "Go", WithProgress(func(e ProgressEvent) {
		if e.Status == StatusCompleted {
			steps = append(steps, e.Step)
		}
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"parseResume", "analyzeRequirements", "computeMatch", "generateImprovements"}, steps)
}

func TestStages_UnknownVariant(t *testing.T) {
	_, err := New(nil, goOnlyAnalysis(), nil).Stages("everything")
	assert.EqualError(t, err, "unknown pipeline variant: everything")
}

func TestVariantSteps_AreWellOrdered(t *testing.T) {
	for v, names := range VariantSteps {
		stages, err := New(nil, goOnlyAnalysis(), &stubSearcher{}).Stages(v)
		require.NoError(t, err)
		require.Len(t, stages, len(names))
		for i, st := range stages {
			assert.Equal(t, names[i], st.Name())
		}
	}
}
