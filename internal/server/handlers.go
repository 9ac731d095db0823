package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resumex/internal/ingestion"
	"github.com/jonathan/resumex/internal/pipeline"
	"github.com/jonathan/resumex/internal/types"
)

// maxJSONBody caps JSON request bodies
const maxJSONBody = 1 << 20

// Envelope is the success body of every analysis endpoint
type Envelope struct {
	Success     bool              `json:"success"`
	RunID       string            `json:"run_id,omitempty"`
	Data        any               `json:"data"`
	SeverityMap map[string]string `json:"severity_map,omitempty"`
}

// FailureResponse is the body returned when a pipeline run stops at a stage
type FailureResponse struct {
	Success bool   `json:"success"`
	RunID   string `json:"run_id,omitempty"`
	Error   string `json:"error"`
	Stage   string `json:"stage,omitempty"`
}

// FullAnalysis is the data of a full-analysis response
type FullAnalysis struct {
	Resume       *types.ParsedProfile       `json:"resume"`
	JDAnalysis   *types.RequirementAnalysis `json:"jd_analysis"`
	Match        *types.MatchResult         `json:"match"`
	Improvements *types.ImprovementSet      `json:"improvements"`
}

// JDRequest is the body of /api/jd/analyze
type JDRequest struct {
	JDText string `json:"jd_text"`
	JDURL  string `json:"jd_url"`
}

// MatchRequest is the body of /api/match. The analysis may be sent as "jd" or "jd_analysis".
type MatchRequest struct {
	Resume     *types.ParsedProfile       `json:"resume"`
	JD         *types.RequirementAnalysis `json:"jd"`
	JDAnalysis *types.RequirementAnalysis `json:"jd_analysis"`
}

func (m MatchRequest) requirements() *types.RequirementAnalysis {
	if m.JD != nil {
		return m.JD
	}
	return m.JDAnalysis
}

// ImproveRequest is the body of /api/improve
type ImproveRequest struct {
	MatchRequest
	Match *types.MatchResult `json:"match"`
}

func fullAnalysisOf(state *pipeline.State) FullAnalysis {
	return FullAnalysis{
		Resume:       state.Profile,
		JDAnalysis:   state.Requirements,
		Match:        state.Match,
		Improvements: state.Improvements,
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"message":           "ResumeX API",
		"llm_configured":    s.app.Config.LLM.APIKey != "",
		"embedding_backend": s.app.Config.EmbeddingBackend(),
		"job_providers":     s.app.Aggregator.Providers(),
	})
}

// handleParseResume parses an uploaded resume
func (s *Server) handleParseResume(w http.ResponseWriter, r *http.Request) {
	file, filename, err := s.readUpload(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	state, err := s.app.Pipeline.RunResumeOnly(r.Context(), file, filename)
	s.finish(w, state, err, func(st *pipeline.State) (any, map[string]string) {
		return st.Profile, nil
	})
}

// handleAnalyzeJD analyzes job description text, or a posting fetched from jd_url
func (s *Server) handleAnalyzeJD(w http.ResponseWriter, r *http.Request) {
	var req JDRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	jd, err := s.app.ResolveJD(r.Context(), req.JDText, req.JDURL)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	state, err := s.app.Pipeline.RunRequirements(r.Context(), jd)
	s.finish(w, state, err, func(st *pipeline.State) (any, map[string]string) {
		return st.Requirements, nil
	})
}

// handleMatch scores a parsed resume against a JD analysis
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	state, err := s.app.Pipeline.RunMatch(r.Context(), req.Resume, req.requirements())
	s.finish(w, state, err, func(st *pipeline.State) (any, map[string]string) {
		return st.Match, st.Match.SeverityMap()
	})
}

// handleImprove suggests improvements for a resume, JD analysis and match
func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	var req ImproveRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	state, err := s.app.Pipeline.RunImprove(r.Context(), req.Resume, req.requirements(), req.Match)
	s.finish(w, state, err, func(st *pipeline.State) (any, map[string]string) {
		return st.Improvements, nil
	})
}

// handleFullAnalysis runs parse, JD analysis, match and improvements in one request
func (s *Server) handleFullAnalysis(w http.ResponseWriter, r *http.Request) {
	file, filename, jd, err := s.fullAnalysisInput(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	state, err := s.app.Pipeline.RunFullAnalysis(r.Context(), file, filename, jd)
	s.finish(w, state, err, func(st *pipeline.State) (any, map[string]string) {
		return fullAnalysisOf(st), st.Match.SeverityMap()
	})
}

// handleFullAnalysisStream runs a full analysis and streams stage progress via SSE
func (s *Server) handleFullAnalysisStream(w http.ResponseWriter, r *http.Request) {
	file, filename, jd, err := s.fullAnalysisInput(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	state, err := s.app.Pipeline.RunFullAnalysis(r.Context(), file, filename, jd,
		pipeline.WithProgress(func(event pipeline.ProgressEvent) {
			if err := sse.WriteEvent("step", event); err != nil {
				s.log.Debug("error writing SSE event", zap.Error(err))
			}
		}),
	)
	switch {
	case err != nil:
		sse.WriteError("", "", err.Error())
	case state.Failed():
		sse.WriteError(state.RunID.String(), state.CurrentStage, state.Error)
	default:
		sse.WriteComplete(state.RunID.String(), Envelope{
			Success:     true,
			Data:        fullAnalysisOf(state),
			SeverityMap: state.Match.SeverityMap(),
		})
	}
}

// handleJobSearch parses an uploaded resume and searches job providers with it
func (s *Server) handleJobSearch(w http.ResponseWriter, r *http.Request) {
	file, filename, err := s.readUpload(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	limit, err := s.limit(r.FormValue("limit"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	state, err := s.app.Pipeline.RunJobSearch(r.Context(), file, filename, limit)
	s.finish(w, state, err, func(st *pipeline.State) (any, map[string]string) {
		return st.Jobs, nil
	})
}

// handleJobSearchFromParsed searches jobs for a profile parsed earlier. The body is the profile.
func (s *Server) handleJobSearchFromParsed(w http.ResponseWriter, r *http.Request) {
	var profile types.ParsedProfile
	if err := s.decodeJSON(w, r, &profile); err != nil {
		s.errorResponse(w, err)
		return
	}
	limit, err := s.limit(r.URL.Query().Get("limit"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	state, err := s.app.Pipeline.RunJobSearchFromProfile(r.Context(), &profile, limit)
	s.finish(w, state, err, func(st *pipeline.State) (any, map[string]string) {
		return st.Jobs, nil
	})
}

// finish writes the envelope for a completed run, the stage failure for a failed
// one, or the pre-run error
func (s *Server) finish(w http.ResponseWriter, state *pipeline.State, err error, data func(*pipeline.State) (any, map[string]string)) {
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	runID := state.RunID.String()
	if state.Failed() {
		s.jsonResponse(w, HTTPStatus(state.Cause), FailureResponse{
			RunID: runID,
			Error: state.Error,
			Stage: state.CurrentStage,
		})
		return
	}
	payload, severity := data(state)
	s.jsonResponse(w, http.StatusOK, Envelope{
		Success:     true,
		RunID:       runID,
		Data:        payload,
		SeverityMap: severity,
	})
}

// readUpload reads the multipart "file" field. The extension is checked before
// any stage runs.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", &ErrBadRequest{Message: "file exceeds upload limit", Cause: err}
		}
		return nil, "", &ErrBadRequest{Message: "expected multipart form with a file field", Cause: err}
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", &ErrBadRequest{Message: "No file provided", Cause: err}
	}
	defer f.Close() //nolint:errcheck

	if !ingestion.IsSupported(header.Filename) {
		return nil, "", &ingestion.UnsupportedFormatError{
			Filename: header.Filename,
			Ext:      strings.ToLower(filepath.Ext(header.Filename)),
		}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", &ErrBadRequest{Message: "failed to read uploaded file", Cause: err}
	}
	return data, header.Filename, nil
}

// fullAnalysisInput reads the resume upload plus jd_text or jd_url form fields
func (s *Server) fullAnalysisInput(w http.ResponseWriter, r *http.Request) ([]byte, string, string, error) {
	file, filename, err := s.readUpload(w, r)
	if err != nil {
		return nil, "", "", err
	}
	jd, err := s.app.ResolveJD(r.Context(), r.FormValue("jd_text"), r.FormValue("jd_url"))
	if err != nil {
		return nil, "", "", err
	}
	return file, filename, jd, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return &ErrBadRequest{Message: "Invalid request body: " + err.Error(), Cause: err}
	}
	return nil
}

// limit parses an optional limit, defaulting to jobs.default_limit
func (s *Server) limit(raw string) (int, error) {
	if raw == "" {
		return s.app.Config.Jobs.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &types.ValidationError{Field: "limit", Message: "must be an integer", Cause: err}
	}
	return n, nil
}
