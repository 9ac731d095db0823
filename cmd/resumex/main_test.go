package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumex/internal/app"
	"github.com/jonathan/resumex/internal/embedding"
	"github.com/jonathan/resumex/internal/parsing"
	"github.com/jonathan/resumex/internal/schemas"
	"github.com/jonathan/resumex/internal/server"
	"github.com/jonathan/resumex/internal/types"
)

var canned = map[schemas.Kind]string{
	schemas.KindProfile:      `{"name": "Ada", "skills": {"languages": ["golang"]}}`,
	schemas.KindRequirements: `{"title": "Backend Engineer", "required_skills": ["Go", "Rust"]}`,
	schemas.KindMatch:        `{"ats_score": 62.6, "matched_skills": ["Go"], "missing_skills": ["Rust"]}`,
	schemas.KindImprovements: `{"improvements": [], "missing_keywords": ["Rust"]}`,
}

type listingBoard []types.Listing

func (b listingBoard) Name() string { return "Board" }

func (b listingBoard) Search(context.Context, string) []types.Listing { return b }

func testOptions() []app.Option {
	extractor := parsing.ExtractorFunc(func(_ context.Context, kind schemas.Kind, _ string) (json.RawMessage, error) {
		return json.RawMessage(canned[kind]), nil
	})
	board := listingBoard{
		{Title: "Go Engineer", Description: "Go services", Source: "Board"},
		{Title: "Barista", Description: "Coffee", Source: "Board"},
	}
	return []app.Option{
		app.WithExtractor(extractor),
		app.WithProviders(board),
		app.WithEmbedder(embedding.NewHashingEmbedder(64)),
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(testOptions()...)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseCommand(t *testing.T) {
	resume := writeFile(t, "ada.txt", "Ada Lovelace\nGolang engineer")

	stdout, _, err := execute(t, "parse", resume)
	require.NoError(t, err)

	var profile types.ParsedProfile
	require.NoError(t, json.Unmarshal([]byte(stdout), &profile))
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, []string{"Go"}, profile.Skills.Languages)
}

func TestParseCommand_Verbose(t *testing.T) {
	resume := writeFile(t, "ada.txt", "Ada")

	_, stderr, err := execute(t, "parse", "--verbose", resume)
	require.NoError(t, err)
	assert.Contains(t, stderr, "PARSED RESUME")
}

func TestParseCommand_Failures(t *testing.T) {
	tests := []struct {
		name    string
		args    func(t *testing.T) []string
		wantErr string
	}{
		{
			name:    "missing file",
			args:    func(*testing.T) []string { return []string{"parse", "/nonexistent/cv.txt"} },
			wantErr: "failed to read resume",
		},
		{
			name:    "unsupported format stops at the parse stage",
			args:    func(t *testing.T) []string { return []string{"parse", writeFile(t, "cv.doc", "x")} },
			wantErr: "Resume parsing failed: unsupported file type .doc",
		},
		{
			name:    "no arguments",
			args:    func(*testing.T) []string { return []string{"parse"} },
			wantErr: "accepts 1 arg(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args(t)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCommand_StageErrorCarriesStage(t *testing.T) {
	_, _, err := execute(t, "parse", writeFile(t, "blank.txt", "  "))

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "started", stageErr.Stage)
	assert.NotEmpty(t, stageErr.RunID)
}

func TestAnalyzeCommand(t *testing.T) {
	resume := writeFile(t, "ada.txt", "Ada\nGo")
	jd := writeFile(t, "jd.txt", "Backend Engineer. Go and Rust.")
	out := filepath.Join(t.TempDir(), "analysis.json")

	stdout, stderr, err := execute(t, "analyze", resume, "--jd-file", jd, "--out", out, "-v")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "MATCH RESULT")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var env struct {
		server.Envelope
		Data server.FullAnalysis `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.True(t, env.Success)
	assert.Equal(t, 63, env.Data.Match.ATSScore)
	assert.Equal(t, []string{"Rust"}, env.Data.Improvements.MissingKeywords)
	assert.Equal(t, "medium", env.SeverityMap["ats_score"])
}

func TestAnalyzeCommand_RequiresJD(t *testing.T) {
	_, _, err := execute(t, "analyze", writeFile(t, "ada.txt", "Ada"))

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "jd", verr.Field)
}

func TestAnalyzeCommand_ExclusiveJDFlags(t *testing.T) {
	_, _, err := execute(t, "analyze", writeFile(t, "ada.txt", "Ada"), "--jd", "Go", "--jd-file", "jd.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestJobsCommand(t *testing.T) {
	resume := writeFile(t, "ada.txt", "Ada\nGo")

	stdout, _, err := execute(t, "jobs", resume, "--limit", "1")
	require.NoError(t, err)

	var result types.JobSearchResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "Go Engineer", result.Jobs[0].Title)
	assert.Equal(t, []string{"Go"}, result.QuerySkills)
}

func TestJobsCommand_NegativeLimit(t *testing.T) {
	_, _, err := execute(t, "jobs", writeFile(t, "ada.txt", "Ada"), "--limit", "-2")

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "limit", verr.Field)
}

func TestStagesCommand(t *testing.T) {
	stdout, _, err := execute(t, "stages")
	require.NoError(t, err)
	for _, want := range []string{"full_analysis", "job_search", "resume_only", "computeMatch", "jobs_found"} {
		assert.Contains(t, stdout, want)
	}

	stdout, _, err = execute(t, "stages", "resume_only")
	require.NoError(t, err)
	assert.Contains(t, stdout, "parseResume")
	assert.NotContains(t, stdout, "searchJobs")

	_, _, err = execute(t, "stages", "everything")
	assert.EqualError(t, err, "unknown pipeline variant: everything")
}
