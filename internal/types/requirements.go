//nolint:revive // types is a standard Go package name pattern
package types

// RequirementAnalysis is the structured form of a job description
type RequirementAnalysis struct {
	Title            string   `json:"title"`
	Company          string   `json:"company,omitempty"`
	RequiredSkills   []string `json:"required_skills"`
	PreferredSkills  []string `json:"preferred_skills"`
	ExperienceYears  string   `json:"experience_years,omitempty"`
	Seniority        string   `json:"seniority,omitempty"`
	Keywords         []string `json:"ats_keywords"`
	Responsibilities []string `json:"responsibilities"`
	Benefits         []string `json:"benefits"`
}
