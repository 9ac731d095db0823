// Package steps declares the pipeline stages: their names, display labels, the
// progress marker each one leaves behind, and the artifacts each one reads.
package steps

import (
	"fmt"
	"strings"
)

// Stage names
const (
	ParseResume          = "parseResume"
	AnalyzeRequirements  = "analyzeRequirements"
	ComputeMatch         = "computeMatch"
	GenerateImprovements = "generateImprovements"
	SearchJobs           = "searchJobs"
)

// Artifact names, as read and written by stages
const (
	ArtifactResumeFile   = "resume_file"
	ArtifactJDText       = "jd_text"
	ArtifactProfile      = "profile"
	ArtifactRequirements = "requirements"
	ArtifactMatch        = "match"
	ArtifactImprovements = "improvements"
	ArtifactJobs         = "jobs"
)

// StepDefinition defines metadata for a pipeline stage
type StepDefinition struct {
	Name      string
	Label     string
	Completed string
	Requires  []string
	Produces  string
}

// StepRegistry holds all stage definitions
var StepRegistry = map[string]StepDefinition{
	ParseResume: {
		Name:      ParseResume,
		Label:     "Resume parsing",
		Completed: "resume_parsed",
		Requires:  []string{ArtifactResumeFile},
		Produces:  ArtifactProfile,
	},
	AnalyzeRequirements: {
		Name:      AnalyzeRequirements,
		Label:     "JD analysis",
		Completed: "jd_analyzed",
		Requires:  []string{ArtifactJDText},
		Produces:  ArtifactRequirements,
	},
	ComputeMatch: {
		Name:      ComputeMatch,
		Label:     "Matching",
		Completed: "matched",
		Requires:  []string{ArtifactProfile, ArtifactRequirements},
		Produces:  ArtifactMatch,
	},
	GenerateImprovements: {
		Name:      GenerateImprovements,
		Label:     "Improvement suggestions",
		Completed: "improved",
		Requires:  []string{ArtifactProfile, ArtifactRequirements, ArtifactMatch},
		Produces:  ArtifactImprovements,
	},
	SearchJobs: {
		Name:      SearchJobs,
		Label:     "Job search",
		Completed: "jobs_found",
		Requires:  []string{ArtifactProfile},
		Produces:  ArtifactJobs,
	},
}

// Lookup returns the definition for name
func Lookup(name string) (StepDefinition, error) {
	def, ok := StepRegistry[name]
	if !ok {
		return StepDefinition{}, fmt.Errorf("unknown step: %s", name)
	}
	return def, nil
}

// DependencyError represents a stage listed before the producers of its inputs
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s has missing dependencies: %s", e.Step, strings.Join(e.MissingDependencies, ", "))
}

// ValidateOrder checks that every stage in order only reads artifacts that are
// either provided up front or produced by an earlier stage.
func ValidateOrder(order []string, provided ...string) error {
	available := make(map[string]bool, len(provided)+len(order))
	for _, a := range provided {
		available[a] = true
	}

	for _, name := range order {
		def, err := Lookup(name)
		if err != nil {
			return err
		}
		var missing []string
		for _, req := range def.Requires {
			if !available[req] {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			return &DependencyError{Step: name, MissingDependencies: missing}
		}
		available[def.Produces] = true
	}
	return nil
}
