package jobs

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/jonathan/resumex/internal/config"
	"github.com/jonathan/resumex/internal/fetch"
	"github.com/jonathan/resumex/internal/types"
)

// JSearch searches the RapidAPI JSearch aggregator. It needs an API key.
type JSearch struct {
	cfg config.JSearchConfig
	src *source
}

// NewJSearch creates the JSearch adapter
func NewJSearch(cfg config.JSearchConfig, deps Deps) *JSearch {
	if cfg.Host == "" {
		cfg.Host = "jsearch.p.rapidapi.com"
	}
	return &JSearch{cfg: cfg, src: newSource("JSearch", deps)}
}

// Name implements Provider
func (j *JSearch) Name() string { return "JSearch" }

// Search implements Provider
func (j *JSearch) Search(ctx context.Context, query string) []types.Listing {
	return j.src.run(ctx, query, j.cfg.APIKey != "", j.search)
}

type jsearchResponse struct {
	Data []struct {
		JobTitle       string          `json:"job_title"`
		EmployerName   string          `json:"employer_name"`
		JobCity        string          `json:"job_city"`
		JobState       string          `json:"job_state"`
		JobApplyLink   string          `json:"job_apply_link"`
		JobSalary      json.RawMessage `json:"job_salary"`
		JobDescription string          `json:"job_description"`
	} `json:"data"`
}

func (j *JSearch) search(ctx context.Context, query string) ([]types.Listing, error) {
	opts := j.src.options(fetch.Options{
		Query: url.Values{"query": {query}, "num_pages": {"1"}},
		Headers: map[string]string{
			"X-RapidAPI-Key":  j.cfg.APIKey,
			"X-RapidAPI-Host": j.cfg.Host,
		},
	})

	var resp jsearchResponse
	if err := fetch.GetJSON(ctx, strings.TrimRight(j.cfg.BaseURL, "/")+"/search", opts, &resp); err != nil {
		return nil, err
	}

	listings := make([]types.Listing, 0, len(resp.Data))
	for _, d := range resp.Data {
		listings = append(listings, types.Listing{
			Title:       d.JobTitle,
			Company:     d.EmployerName,
			Location:    joinNonEmpty(", ", d.JobCity, d.JobState),
			URL:         d.JobApplyLink,
			Salary:      rawText(d.JobSalary),
			Description: d.JobDescription,
		})
	}
	return listings, nil
}

// rawText renders a JSON scalar of unknown type as text; null and objects are empty.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
