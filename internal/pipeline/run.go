package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/resumex/internal/pipeline/steps"
	"github.com/jonathan/resumex/internal/types"
)

// Variant names a fixed stage ordering
type Variant string

// Pipeline variants
const (
	VariantResumeOnly   Variant = "resume_only"
	VariantFullAnalysis Variant = "full_analysis"
	VariantJobSearch    Variant = "job_search"
)

// VariantSteps lists the stage names of each variant, in execution order
var VariantSteps = map[Variant][]string{
	VariantResumeOnly:   {steps.ParseResume},
	VariantFullAnalysis: {steps.ParseResume, steps.AnalyzeRequirements, steps.ComputeMatch, steps.GenerateImprovements},
	VariantJobSearch:    {steps.ParseResume, steps.SearchJobs},
}

// Pipeline binds the engine to its collaborators and exposes one entry point
// per variant. Each entry point builds a fresh State.
type Pipeline struct {
	engine   *Engine
	analysis Analysis
	jobs     JobSearcher
}

// New creates a Pipeline. jobs may be nil when job search is not served.
func New(engine *Engine, analysis Analysis, jobs JobSearcher) *Pipeline {
	if engine == nil {
		engine = NewEngine()
	}
	return &Pipeline{engine: engine, analysis: analysis, jobs: jobs}
}

// RunOption configures a single run
type RunOption func(*State)

// WithProgress streams progress events for the run
func WithProgress(fn ProgressFunc) RunOption {
	return func(s *State) { s.OnProgress = fn }
}

// Stages returns the stage list for a variant
func (p *Pipeline) Stages(v Variant) ([]Stage, error) {
	names, ok := VariantSteps[v]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline variant: %s", v)
	}
	out := make([]Stage, 0, len(names))
	for _, name := range names {
		stage, err := p.stage(name)
		if err != nil {
			return nil, err
		}
		out = append(out, stage)
	}
	return out, nil
}

func (p *Pipeline) stage(name string) (Stage, error) {
	switch name {
	case steps.ParseResume:
		return ParseResumeStage(p.analysis), nil
	case steps.AnalyzeRequirements:
		return AnalyzeRequirementsStage(p.analysis), nil
	case steps.ComputeMatch:
		return ComputeMatchStage(p.analysis), nil
	case steps.GenerateImprovements:
		return GenerateImprovementsStage(p.analysis), nil
	case steps.SearchJobs:
		if p.jobs == nil {
			return nil, fmt.Errorf("job search is not configured")
		}
		return SearchJobsStage(p.jobs), nil
	}
	return nil, fmt.Errorf("unknown step: %s", name)
}

func (p *Pipeline) run(ctx context.Context, v Variant, state *State, opts []RunOption) (*State, error) {
	stages, err := p.Stages(v)
	if err != nil {
		return nil, err
	}
	return p.runStages(ctx, stages, state, opts), nil
}

func (p *Pipeline) runStages(ctx context.Context, stages []Stage, state *State, opts []RunOption) *State {
	for _, opt := range opts {
		opt(state)
	}
	return p.engine.Run(ctx, stages, state)
}

// RunResumeOnly parses a resume document
func (p *Pipeline) RunResumeOnly(ctx context.Context, file []byte, filename string, opts ...RunOption) (*State, error) {
	state := NewState()
	state.ResumeFile = file
	state.ResumeFilename = filename
	return p.run(ctx, VariantResumeOnly, state, opts)
}

// RunFullAnalysis parses a resume, analyzes a job description, matches the two
// and suggests improvements
func (p *Pipeline) RunFullAnalysis(ctx context.Context, file []byte, filename, jdText string, opts ...RunOption) (*State, error) {
	state := NewState()
	state.ResumeFile = file
	state.ResumeFilename = filename
	state.JDText = jdText
	return p.run(ctx, VariantFullAnalysis, state, opts)
}

// RunJobSearch parses a resume and searches job providers with it. A negative
// limit is rejected before any stage runs.
func (p *Pipeline) RunJobSearch(ctx context.Context, file []byte, filename string, limit int, opts ...RunOption) (*State, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	state := NewState()
	state.ResumeFile = file
	state.ResumeFilename = filename
	state.JobLimit = limit
	return p.run(ctx, VariantJobSearch, state, opts)
}

// RunRequirements analyzes a job description alone
func (p *Pipeline) RunRequirements(ctx context.Context, jdText string, opts ...RunOption) (*State, error) {
	state := NewState()
	state.JDText = jdText
	return p.runStages(ctx, []Stage{AnalyzeRequirementsStage(p.analysis)}, state, opts), nil
}

// RunMatch scores caller-supplied artifacts. Both are validated first.
func (p *Pipeline) RunMatch(ctx context.Context, profile *types.ParsedProfile, req *types.RequirementAnalysis, opts ...RunOption) (*State, error) {
	if err := firstError(profile.Validate(), req.Validate()); err != nil {
		return nil, err
	}
	state := NewState()
	state.Profile = profile
	state.Requirements = req
	return p.runStages(ctx, []Stage{ComputeMatchStage(p.analysis)}, state, opts), nil
}

// RunImprove suggests improvements from caller-supplied artifacts. All three are
// validated first.
func (p *Pipeline) RunImprove(ctx context.Context, profile *types.ParsedProfile, req *types.RequirementAnalysis, match *types.MatchResult, opts ...RunOption) (*State, error) {
	if err := firstError(profile.Validate(), req.Validate(), match.Validate()); err != nil {
		return nil, err
	}
	state := NewState()
	state.Profile = profile
	state.Requirements = req
	state.Match = match
	return p.runStages(ctx, []Stage{GenerateImprovementsStage(p.analysis)}, state, opts), nil
}

// RunJobSearchFromProfile searches jobs for an already parsed profile
func (p *Pipeline) RunJobSearchFromProfile(ctx context.Context, profile *types.ParsedProfile, limit int, opts ...RunOption) (*State, error) {
	if err := firstError(validateLimit(limit), profile.Validate()); err != nil {
		return nil, err
	}
	if p.jobs == nil {
		return nil, fmt.Errorf("job search is not configured")
	}
	state := NewState()
	state.Profile = profile
	state.JobLimit = limit
	return p.runStages(ctx, []Stage{SearchJobsStage(p.jobs)}, state, opts), nil
}

func validateLimit(limit int) error {
	if limit < 0 {
		return &types.ValidationError{Field: "limit", Message: fmt.Sprintf("limit must be >= 0, got %d", limit)}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
