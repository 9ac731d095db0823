//nolint:revive // types is a standard Go package name pattern
package types

import "math"

// MatchResult compares a profile against a requirement analysis
type MatchResult struct {
	ATSScore            int      `json:"ats_score" validate:"gte=0,lte=100"`
	SkillOverlapPercent float64  `json:"skill_overlap_percent" validate:"gte=0,lte=100"`
	MatchedSkills       []string `json:"matched_skills"`
	MissingSkills       []string `json:"missing_skills"`
	KeywordCoverage     float64  `json:"keyword_coverage" validate:"gte=0,lte=100"`
	ExperienceMatch     string   `json:"experience_match,omitempty"`
	Strengths           []string `json:"strengths"`
	Gaps                []string `json:"gaps"`
}

// ClampScore rounds a raw score and bounds it to [0, 100]
func ClampScore(raw float64) int {
	return int(ClampPercent(math.Round(raw)))
}

// ClampPercent bounds a percentage to [0, 100]. NaN maps to 0.
func ClampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// SeverityMap grades the headline match fields for display.
// ats_score: <50 high, <70 medium, else low. missing_skills: >5 high, >2 medium, else low.
func (m *MatchResult) SeverityMap() map[string]string {
	if m == nil {
		return map[string]string{}
	}

	out := make(map[string]string, 2)
	switch {
	case m.ATSScore < 50:
		out["ats_score"] = SeverityHigh
	case m.ATSScore < 70:
		out["ats_score"] = SeverityMedium
	default:
		out["ats_score"] = SeverityLow
	}

	switch n := len(m.MissingSkills); {
	case n > 5:
		out["missing_skills"] = SeverityHigh
	case n > 2:
		out["missing_skills"] = SeverityMedium
	default:
		out["missing_skills"] = SeverityLow
	}
	return out
}
