package pipeline

import (
	"context"
	"errors"

	"github.com/jonathan/resumex/internal/ingestion"
	"github.com/jonathan/resumex/internal/pipeline/steps"
	"github.com/jonathan/resumex/internal/types"
)

// Analysis is the set of structured-extraction calls the analysis stages need.
// *parsing.Analyzer implements it.
type Analysis interface {
	ParseResume(ctx context.Context, resumeText string) (*types.ParsedProfile, error)
	AnalyzeRequirements(ctx context.Context, jdText string) (*types.RequirementAnalysis, error)
	ComputeMatch(ctx context.Context, profile *types.ParsedProfile, req *types.RequirementAnalysis) (*types.MatchResult, error)
	SuggestImprovements(ctx context.Context, profile *types.ParsedProfile, req *types.RequirementAnalysis, match *types.MatchResult) (*types.ImprovementSet, error)
}

// JobSearcher finds and ranks listings for a profile. *jobs.Aggregator implements it.
type JobSearcher interface {
	Search(ctx context.Context, profile *types.ParsedProfile, limit int) (*types.JobSearchResult, error)
}

var (
	errNoResume       = errors.New("resume file is required")
	errNoJD           = errors.New("job description text is required")
	errNoProfile      = errors.New("parsed profile is required")
	errNoRequirements = errors.New("requirement analysis is required")
	errNoMatch        = errors.New("match result is required")
)

// definedStage takes its name, label and completion marker from the step registry
type definedStage struct {
	def steps.StepDefinition
}

func defined(name string) definedStage {
	def, err := steps.Lookup(name)
	if err != nil {
		panic(err)
	}
	return definedStage{def: def}
}

func (d definedStage) Name() string      { return d.def.Name }
func (d definedStage) Label() string     { return d.def.Label }
func (d definedStage) Completed() string { return d.def.Completed }

type parseResumeStage struct {
	definedStage
	analysis Analysis
}

// ParseResumeStage extracts document text and parses it into State.Profile
func ParseResumeStage(a Analysis) Stage {
	return &parseResumeStage{definedStage: defined(steps.ParseResume), analysis: a}
}

func (st *parseResumeStage) Run(ctx context.Context, s *State) error {
	if len(s.ResumeFile) == 0 {
		return errNoResume
	}
	text, err := ingestion.ExtractText(s.ResumeFilename, s.ResumeFile)
	if err != nil {
		return err
	}
	profile, err := st.analysis.ParseResume(ctx, text)
	if err != nil {
		return err
	}
	s.Profile = profile
	return nil
}

type analyzeRequirementsStage struct {
	definedStage
	analysis Analysis
}

// AnalyzeRequirementsStage parses State.JDText into State.Requirements
func AnalyzeRequirementsStage(a Analysis) Stage {
	return &analyzeRequirementsStage{definedStage: defined(steps.AnalyzeRequirements), analysis: a}
}

func (st *analyzeRequirementsStage) Run(ctx context.Context, s *State) error {
	if s.JDText == "" {
		return errNoJD
	}
	req, err := st.analysis.AnalyzeRequirements(ctx, s.JDText)
	if err != nil {
		return err
	}
	s.Requirements = req
	return nil
}

type computeMatchStage struct {
	definedStage
	analysis Analysis
}

// ComputeMatchStage scores State.Profile against State.Requirements
func ComputeMatchStage(a Analysis) Stage {
	return &computeMatchStage{definedStage: defined(steps.ComputeMatch), analysis: a}
}

func (st *computeMatchStage) Run(ctx context.Context, s *State) error {
	if s.Profile == nil {
		return errNoProfile
	}
	if s.Requirements == nil {
		return errNoRequirements
	}
	match, err := st.analysis.ComputeMatch(ctx, s.Profile, s.Requirements)
	if err != nil {
		return err
	}
	s.Match = match
	return nil
}

type generateImprovementsStage struct {
	definedStage
	analysis Analysis
}

// GenerateImprovementsStage produces State.Improvements from the three upstream artifacts
func GenerateImprovementsStage(a Analysis) Stage {
	return &generateImprovementsStage{definedStage: defined(steps.GenerateImprovements), analysis: a}
}

func (st *generateImprovementsStage) Run(ctx context.Context, s *State) error {
	switch {
	case s.Profile == nil:
		return errNoProfile
	case s.Requirements == nil:
		return errNoRequirements
	case s.Match == nil:
		return errNoMatch
	}
	set, err := st.analysis.SuggestImprovements(ctx, s.Profile, s.Requirements, s.Match)
	if err != nil {
		return err
	}
	s.Improvements = set
	return nil
}

type searchJobsStage struct {
	definedStage
	searcher JobSearcher
}

// SearchJobsStage runs the job aggregator for State.Profile with State.JobLimit
func SearchJobsStage(j JobSearcher) Stage {
	return &searchJobsStage{definedStage: defined(steps.SearchJobs), searcher: j}
}

func (st *searchJobsStage) Run(ctx context.Context, s *State) error {
	if s.Profile == nil {
		return errNoProfile
	}
	result, err := st.searcher.Search(ctx, s.Profile, s.JobLimit)
	if err != nil {
		return err
	}
	s.Jobs = result
	return nil
}
