package jobs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/resumex/internal/config"
	"github.com/jonathan/resumex/internal/fetch"
	"github.com/jonathan/resumex/internal/types"
)

// Adzuna searches the Adzuna jobs API. Both app id and key are required.
type Adzuna struct {
	cfg config.AdzunaConfig
	src *source
}

// NewAdzuna creates the Adzuna adapter
func NewAdzuna(cfg config.AdzunaConfig, deps Deps) *Adzuna {
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	return &Adzuna{cfg: cfg, src: newSource("Adzuna", deps)}
}

// Name implements Provider
func (a *Adzuna) Name() string { return "Adzuna" }

// Search implements Provider
func (a *Adzuna) Search(ctx context.Context, query string) []types.Listing {
	configured := a.cfg.AppID != "" && a.cfg.APIKey != ""
	return a.src.run(ctx, query, configured, a.search)
}

type adzunaResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Company struct {
			DisplayName string `json:"display_name"`
		} `json:"company"`
		Location struct {
			DisplayName string `json:"display_name"`
		} `json:"location"`
		RedirectURL string   `json:"redirect_url"`
		SalaryMin   *float64 `json:"salary_min"`
		SalaryMax   *float64 `json:"salary_max"`
		Description string   `json:"description"`
	} `json:"results"`
}

func (a *Adzuna) search(ctx context.Context, query string) ([]types.Listing, error) {
	endpoint := fmt.Sprintf("%s/%s/search/1", strings.TrimRight(a.cfg.BaseURL, "/"), url.PathEscape(a.cfg.Country))
	opts := a.src.options(fetch.Options{
		Query: url.Values{
			"app_id":           {a.cfg.AppID},
			"app_key":          {a.cfg.APIKey},
			"what":             {query},
			"results_per_page": {strconv.Itoa(resultsPerProvider)},
		},
	})

	var resp adzunaResponse
	if err := fetch.GetJSON(ctx, endpoint, opts, &resp); err != nil {
		return nil, err
	}

	listings := make([]types.Listing, 0, len(resp.Results))
	for _, r := range resp.Results {
		listings = append(listings, types.Listing{
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			URL:         r.RedirectURL,
			Salary:      salaryRange(r.SalaryMin, r.SalaryMax),
			Description: r.Description,
		})
	}
	return listings, nil
}

// salaryRange renders "$min - $max"; a missing bound reads N/A and two missing
// bounds yield an empty string.
func salaryRange(lo, hi *float64) string {
	if lo == nil && hi == nil {
		return ""
	}
	return bound(lo) + " - " + bound(hi)
}

func bound(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return "$" + strconv.FormatFloat(*v, 'f', -1, 64)
}
