// Package observability provides metrics collectors and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resumex/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "..."
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// writeList writes up to limit items under a heading, then a "... and N more" line
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// PrintProfile outputs a human-readable summary of a parsed resume.
func (p *Printer) PrintProfile(profile *types.ParsedProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", profile.Name))
	if profile.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:    %s\n", profile.Email))
	}
	if profile.Location != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n", profile.Location))
	}
	sb.WriteString(fmt.Sprintf("Roles:    %d   Education: %d   Projects: %d\n",
		len(profile.Experience), len(profile.Education), len(profile.Projects)))
	sb.WriteString("\n")

	if top := profile.Skills.TopSkills(maxItemsToShow * 2); len(top) > 0 {
		sb.WriteString("Top Skills:\n")
		sb.WriteString("  " + clip(strings.Join(top, ", "), boxWidth-6) + "\n\n")
	}

	count := min(len(profile.Experience), 3)
	if count > 0 {
		sb.WriteString("Recent Experience:\n")
		for i := 0; i < count; i++ {
			exp := profile.Experience[i]
			sb.WriteString(fmt.Sprintf("  • %s, %s\n", exp.Title, exp.Company))
		}
	}

	p.printBox("PARSED RESUME", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRequirements outputs the analyzed job description.
func (p *Printer) PrintRequirements(req *types.RequirementAnalysis) {
	if req == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:     %s\n", req.Title))
	if req.Company != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", req.Company))
	}
	if req.Seniority != "" || req.ExperienceYears != "" {
		sb.WriteString(fmt.Sprintf("Level:    %s %s\n", req.Seniority, req.ExperienceYears))
	}
	sb.WriteString("\n")

	writeList(&sb, "Required Skills", req.RequiredSkills, maxItemsToShow)
	writeList(&sb, "Preferred Skills", req.PreferredSkills, 3)

	p.printBox("JOB DESCRIPTION ANALYSIS", strings.TrimRight(sb.String(), "\n"))
}

// PrintMatch outputs the match scores with their severity grades.
func (p *Printer) PrintMatch(match *types.MatchResult) {
	if match == nil {
		return
	}
	severity := match.SeverityMap()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ATS Score:        %d/100 [%s]\n", match.ATSScore, severity["ats_score"]))
	sb.WriteString(fmt.Sprintf("Skill Overlap:    %.0f%%\n", match.SkillOverlapPercent))
	sb.WriteString(fmt.Sprintf("Keyword Coverage: %.0f%%\n", match.KeywordCoverage))
	if match.ExperienceMatch != "" {
		sb.WriteString(fmt.Sprintf("Experience:       %s\n", match.ExperienceMatch))
	}
	sb.WriteString("\n")

	writeList(&sb, "Matched", match.MatchedSkills, maxItemsToShow)
	writeList(&sb, fmt.Sprintf("Missing [%s]", severity["missing_skills"]), match.MissingSkills, maxItemsToShow)

	p.printBox("MATCH RESULT", strings.TrimRight(sb.String(), "\n"))
}

// PrintImprovements outputs the suggested edits, highest impact first as returned.
func (p *Printer) PrintImprovements(set *types.ImprovementSet) {
	if set == nil || (len(set.Improvements) == 0 && len(set.MissingKeywords) == 0) {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Suggested %d improvements:\n\n", len(set.Improvements)))

	count := min(len(set.Improvements), maxItemsToShow)
	for i := 0; i < count; i++ {
		imp := set.Improvements[i]
		sb.WriteString(fmt.Sprintf("• [%s] %s\n", imp.Section, clip(imp.Suggested, 44)))
		if imp.Severity != "" {
			sb.WriteString(fmt.Sprintf("  severity: %s\n", imp.Severity))
		}
	}
	if len(set.Improvements) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(set.Improvements)-maxItemsToShow))
	}
	sb.WriteString("\n")

	writeList(&sb, "Missing Keywords", set.MissingKeywords, maxItemsToShow)

	p.printBox("IMPROVEMENTS", strings.TrimRight(sb.String(), "\n"))
}

// PrintJobs outputs ranked job listings.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintJobs(result *types.JobSearchResult) {
	if result == nil {
		return
	}
	if len(result.Jobs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO MATCHING JOBS FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n\n", strings.Join(result.QuerySkills, " ")))

	for i, job := range result.Jobs {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, job.Title))
		sb.WriteString(fmt.Sprintf("    %s · %s\n", job.Company, job.Location))
		sb.WriteString(fmt.Sprintf("    Score: %.1f  (%s)\n", job.MatchScore, job.Source))
		if job.Salary != "" {
			sb.WriteString(fmt.Sprintf("    Salary: %s\n", job.Salary))
		}
		if i < len(result.Jobs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("RANKED JOBS", sb.String())
}
