// Package types provides type definitions for structured data used throughout the resumex system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ParsedProfile is the structured form of a candidate resume
type ParsedProfile struct {
	Name           string       `json:"name"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	LinkedIn       string       `json:"linkedin,omitempty"`
	Location       string       `json:"location,omitempty"`
	Summary        string       `json:"summary,omitempty"`
	Education      []Education  `json:"education" validate:"dive"`
	Experience     []Experience `json:"experience" validate:"dive"`
	Projects       []Project    `json:"projects" validate:"dive"`
	Skills         Skills       `json:"skills"`
	Certifications []string     `json:"certifications"`
}

// Education is one degree entry
type Education struct {
	Institution string `json:"institution" validate:"required"`
	Degree      string `json:"degree" validate:"required"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	GPA         string `json:"gpa,omitempty"`
}

// Experience is one job entry; profile order is preserved as written
type Experience struct {
	Company   string   `json:"company" validate:"required"`
	Title     string   `json:"title" validate:"required"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Location  string   `json:"location,omitempty"`
	Bullets   []string `json:"bullets"`
}

// Project is a side or portfolio project
type Project struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty"`
}

// Skills groups skills by category. Order within each list is significant:
// the job search query takes the leading entries of languages, frameworks, tools.
type Skills struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	Tools      []string `json:"tools"`
	SoftSkills []string `json:"soft_skills"`
}

// TopSkills returns at most n skills drawn from languages, then frameworks, then tools
func (s Skills) TopSkills(n int) []string {
	if n <= 0 {
		return []string{}
	}
	out := make([]string, 0, n)
	for _, group := range [][]string{s.Languages, s.Frameworks, s.Tools} {
		for _, skill := range group {
			if len(out) == n {
				return out
			}
			out = append(out, skill)
		}
	}
	return out
}
