//nolint:revive // types is a standard Go package name pattern
package types

// MaxDescriptionRunes caps Listing.Description
const MaxDescriptionRunes = 500

// Listing is a job posting normalized from any provider
type Listing struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	URL         string  `json:"url"`
	Salary      string  `json:"salary,omitempty"`
	Description string  `json:"description"`
	MatchScore  float64 `json:"match_score"`
	Source      string  `json:"source"`
}

// JobSearchResult is the ranked output of a job search
type JobSearchResult struct {
	Jobs        []Listing `json:"jobs"`
	QuerySkills []string  `json:"query_skills"`
}

// TruncateDescription cuts s to MaxDescriptionRunes code points
func TruncateDescription(s string) string {
	r := []rune(s)
	if len(r) <= MaxDescriptionRunes {
		return s
	}
	return string(r[:MaxDescriptionRunes])
}
