package parsing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resumex/internal/schemas"
	"github.com/jonathan/resumex/internal/types"
)

// Analyzer runs the four analysis calls against an Extractor
type Analyzer struct {
	extractor Extractor
}

// NewAnalyzer returns an Analyzer using extractor
func NewAnalyzer(extractor Extractor) *Analyzer {
	return &Analyzer{extractor: extractor}
}

// ParseResume extracts a ParsedProfile from resume text
func (a *Analyzer) ParseResume(ctx context.Context, resumeText string) (*types.ParsedProfile, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("resume text is empty")
	}

	profile, err := extract[types.ParsedProfile](ctx, a.extractor, schemas.KindProfile, resumeText)
	if err != nil {
		return nil, err
	}
	postProcessProfile(profile)
	return profile, nil
}

// AnalyzeRequirements extracts a RequirementAnalysis from job description text
func (a *Analyzer) AnalyzeRequirements(ctx context.Context, jdText string) (*types.RequirementAnalysis, error) {
	if strings.TrimSpace(jdText) == "" {
		return nil, fmt.Errorf("job description text is empty")
	}

	req, err := extract[types.RequirementAnalysis](ctx, a.extractor, schemas.KindRequirements, jdText)
	if err != nil {
		return nil, err
	}
	postProcessRequirements(req)
	return req, nil
}

// matchPayload reads ats_score as a number so fractional and out-of-range values can be clamped
type matchPayload struct {
	ATSScore            float64  `json:"ats_score"`
	SkillOverlapPercent float64  `json:"skill_overlap_percent"`
	MatchedSkills       []string `json:"matched_skills"`
	MissingSkills       []string `json:"missing_skills"`
	KeywordCoverage     float64  `json:"keyword_coverage"`
	ExperienceMatch     string   `json:"experience_match"`
	Strengths           []string `json:"strengths"`
	Gaps                []string `json:"gaps"`
}

// ComputeMatch scores a profile against a requirement analysis.
// ats_score is rounded and clamped to [0, 100]; both percentages are clamped independently.
func (a *Analyzer) ComputeMatch(ctx context.Context, profile *types.ParsedProfile, req *types.RequirementAnalysis) (*types.MatchResult, error) {
	input, err := composeInput(
		section{"Resume data", profile},
		section{"Job description analysis", req},
	)
	if err != nil {
		return nil, err
	}

	p, err := extract[matchPayload](ctx, a.extractor, schemas.KindMatch, input)
	if err != nil {
		return nil, err
	}

	return &types.MatchResult{
		ATSScore:            types.ClampScore(p.ATSScore),
		SkillOverlapPercent: types.ClampPercent(p.SkillOverlapPercent),
		MatchedSkills:       orEmpty(p.MatchedSkills),
		MissingSkills:       orEmpty(p.MissingSkills),
		KeywordCoverage:     types.ClampPercent(p.KeywordCoverage),
		ExperienceMatch:     strings.TrimSpace(p.ExperienceMatch),
		Strengths:           orEmpty(p.Strengths),
		Gaps:                orEmpty(p.Gaps),
	}, nil
}

// SuggestImprovements produces concrete edits from all three upstream artifacts
func (a *Analyzer) SuggestImprovements(ctx context.Context, profile *types.ParsedProfile, req *types.RequirementAnalysis, match *types.MatchResult) (*types.ImprovementSet, error) {
	input, err := composeInput(
		section{"Resume data", profile},
		section{"Job description analysis", req},
		section{"Match analysis", match},
	)
	if err != nil {
		return nil, err
	}

	set, err := extract[types.ImprovementSet](ctx, a.extractor, schemas.KindImprovements, input)
	if err != nil {
		return nil, err
	}
	postProcessImprovements(set)
	if err := set.Validate(); err != nil {
		return nil, &MalformedOutputError{Kind: schemas.KindImprovements, Message: "improvement fields out of range", Cause: err}
	}
	return set, nil
}

// extract runs the extractor and decodes its payload into T
func extract[T any](ctx context.Context, extractor Extractor, kind schemas.Kind, input string) (*T, error) {
	payload, err := extractor.Extract(ctx, kind, input)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &MalformedOutputError{Kind: kind, Message: "payload does not fit the expected shape", Cause: err}
	}
	return &out, nil
}

type section struct {
	title string
	value any
}

// composeInput renders upstream artifacts as titled JSON blocks for the prompt
func composeInput(sections ...section) (string, error) {
	var sb strings.Builder
	for i, s := range sections {
		data, err := json.MarshalIndent(s.value, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", strings.ToLower(s.title), err)
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(s.title)
		sb.WriteString(":\n")
		sb.Write(data)
	}
	return sb.String(), nil
}

func postProcessProfile(p *types.ParsedProfile) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Skills.Languages = NormalizeSkills(p.Skills.Languages)
	p.Skills.Frameworks = NormalizeSkills(p.Skills.Frameworks)
	p.Skills.Tools = NormalizeSkills(p.Skills.Tools)
	p.Skills.SoftSkills = orEmpty(p.Skills.SoftSkills)
	p.Certifications = orEmpty(p.Certifications)
	if p.Education == nil {
		p.Education = []types.Education{}
	}
	if p.Experience == nil {
		p.Experience = []types.Experience{}
	}
	for i := range p.Experience {
		p.Experience[i].Bullets = orEmpty(p.Experience[i].Bullets)
	}
	if p.Projects == nil {
		p.Projects = []types.Project{}
	}
	for i := range p.Projects {
		p.Projects[i].Technologies = orEmpty(p.Projects[i].Technologies)
	}
}

func postProcessRequirements(r *types.RequirementAnalysis) {
	r.Title = strings.TrimSpace(r.Title)
	r.RequiredSkills = NormalizeSkills(r.RequiredSkills)
	r.PreferredSkills = NormalizeSkills(r.PreferredSkills)
	r.Keywords = NormalizeKeywords(r.Keywords)
	r.Responsibilities = orEmpty(r.Responsibilities)
	r.Benefits = orEmpty(r.Benefits)
}

func postProcessImprovements(s *types.ImprovementSet) {
	if s.Improvements == nil {
		s.Improvements = []types.Improvement{}
	}
	for i := range s.Improvements {
		imp := &s.Improvements[i]
		imp.Severity = strings.ToLower(strings.TrimSpace(imp.Severity))
		imp.KeywordsAdded = orEmpty(imp.KeywordsAdded)
	}
	s.MissingKeywords = orEmpty(s.MissingKeywords)
	s.QuantificationTips = orEmpty(s.QuantificationTips)
	s.SectionOrder = orEmpty(s.SectionOrder)
	s.OverallTips = orEmpty(s.OverallTips)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
