package jobs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jonathan/resumex/internal/config"
	"github.com/jonathan/resumex/internal/fetch"
	"github.com/jonathan/resumex/internal/types"
)

// HeadHunter searches the hh.ru vacancies API. It works anonymously; a token is
// sent when configured. hh.ru rejects requests without a descriptive User-Agent.
type HeadHunter struct {
	cfg config.HeadHunterConfig
	src *source
}

// NewHeadHunter creates the hh.ru adapter
func NewHeadHunter(cfg config.HeadHunterConfig, deps Deps) *HeadHunter {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "resumex/1.0"
	}
	return &HeadHunter{cfg: cfg, src: newSource("HeadHunter", deps)}
}

// Name implements Provider
func (h *HeadHunter) Name() string { return "HeadHunter" }

// Search implements Provider
func (h *HeadHunter) Search(ctx context.Context, query string) []types.Listing {
	return h.src.run(ctx, query, h.cfg.BaseURL != "", h.search)
}

// itemPage is the generic paged envelope hh.ru wraps every collection in
type itemPage struct {
	Items   []any `json:"items"`
	Found   int   `json:"found"`
	Pages   int   `json:"pages"`
	PerPage int   `json:"per_page"`
}

type vacancy struct {
	Name     string `json:"name"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	AlternateURL string `json:"alternate_url"`
	Salary       *struct {
		From     *float64 `json:"from"`
		To       *float64 `json:"to"`
		Currency string   `json:"currency"`
	} `json:"salary"`
	Snippet struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet"`
}

func (h *HeadHunter) search(ctx context.Context, query string) ([]types.Listing, error) {
	q := url.Values{
		"text":     {query},
		"per_page": {strconv.Itoa(resultsPerProvider)},
	}
	if h.cfg.Area != "" {
		q.Set("area", h.cfg.Area)
	}
	headers := map[string]string{}
	if h.cfg.Token != "" {
		headers["Authorization"] = "Bearer " + h.cfg.Token
	}
	opts := h.src.options(fetch.Options{
		UserAgent: h.cfg.UserAgent,
		Query:     q,
		Headers:   headers,
	})

	var page itemPage
	if err := fetch.GetJSON(ctx, strings.TrimRight(h.cfg.BaseURL, "/")+"/vacancies", opts, &page); err != nil {
		return nil, err
	}

	var vacancies []vacancy
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &vacancies,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(page.Items); err != nil {
		return nil, fmt.Errorf("decoding vacancies: %w", err)
	}

	listings := make([]types.Listing, 0, len(vacancies))
	for _, v := range vacancies {
		listings = append(listings, types.Listing{
			Title:       v.Name,
			Company:     v.Employer.Name,
			Location:    v.Area.Name,
			URL:         v.AlternateURL,
			Salary:      v.salary(),
			Description: joinNonEmpty(" ", v.Snippet.Requirement, v.Snippet.Responsibility),
		})
	}
	return listings, nil
}

func (v vacancy) salary() string {
	if v.Salary == nil || (v.Salary.From == nil && v.Salary.To == nil) {
		return ""
	}
	num := func(f *float64) string {
		if f == nil {
			return "N/A"
		}
		return strconv.FormatFloat(*f, 'f', -1, 64)
	}
	return joinNonEmpty(" ", num(v.Salary.From)+" - "+num(v.Salary.To), v.Salary.Currency)
}
