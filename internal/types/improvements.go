//nolint:revive // types is a standard Go package name pattern
package types

// Severity levels for an improvement
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Improvement is one concrete resume edit
type Improvement struct {
	Section       string   `json:"section" validate:"required"`
	Original      string   `json:"original"`
	Suggested     string   `json:"suggested" validate:"required"`
	Reason        string   `json:"reason"`
	Severity      string   `json:"severity" validate:"omitempty,oneof=low medium high"`
	KeywordsAdded []string `json:"keywords_added"`
}

// ImprovementSet is the output of the improvement stage
type ImprovementSet struct {
	Improvements       []Improvement `json:"improvements" validate:"dive"`
	MissingKeywords    []string      `json:"missing_keywords"`
	QuantificationTips []string      `json:"quantification_tips"`
	SectionOrder       []string      `json:"section_order"`
	OverallTips        []string      `json:"overall_tips"`
}
