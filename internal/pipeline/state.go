package pipeline

import (
	"github.com/google/uuid"

	"github.com/jonathan/resumex/internal/types"
)

// InitialStage is CurrentStage before any stage has completed
const InitialStage = "started"

// State is the record one pipeline run reads and writes. It is created per run
// and never shared between runs.
type State struct {
	RunID          uuid.UUID `json:"run_id"`
	ResumeFile     []byte    `json:"-"`
	ResumeFilename string    `json:"resume_filename,omitempty"`
	JDText         string    `json:"-"`
	JobLimit       int       `json:"-"`

	Profile      *types.ParsedProfile       `json:"resume,omitempty"`
	Requirements *types.RequirementAnalysis `json:"jd_analysis,omitempty"`
	Match        *types.MatchResult         `json:"match,omitempty"`
	Improvements *types.ImprovementSet      `json:"improvements,omitempty"`
	Jobs         *types.JobSearchResult     `json:"jobs,omitempty"`

	// Error is set once, by the engine, naming the stage that failed
	Error        string `json:"error,omitempty"`
	CurrentStage string `json:"current_stage"`
	Cause        error  `json:"-"`

	OnProgress ProgressFunc `json:"-"`
}

// NewState returns an empty state with a fresh run id
func NewState() *State {
	return &State{RunID: uuid.New(), CurrentStage: InitialStage}
}

// Failed reports whether a stage has failed
func (s *State) Failed() bool {
	return s.Error != ""
}

// artifacts is a copy of every derived slot
type artifacts struct {
	profile      *types.ParsedProfile
	requirements *types.RequirementAnalysis
	match        *types.MatchResult
	improvements *types.ImprovementSet
	jobs         *types.JobSearchResult
}

func (s *State) snapshot() artifacts {
	return artifacts{
		profile:      s.Profile,
		requirements: s.Requirements,
		match:        s.Match,
		improvements: s.Improvements,
		jobs:         s.Jobs,
	}
}

func (s *State) restore(a artifacts) {
	s.Profile = a.profile
	s.Requirements = a.requirements
	s.Match = a.match
	s.Improvements = a.improvements
	s.Jobs = a.jobs
}
