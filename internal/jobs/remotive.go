package jobs

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jonathan/resumex/internal/config"
	"github.com/jonathan/resumex/internal/fetch"
	"github.com/jonathan/resumex/internal/types"
)

// Remotive searches the public Remotive remote-jobs API. No credentials.
type Remotive struct {
	cfg config.RemotiveConfig
	src *source
}

// NewRemotive creates the Remotive adapter
func NewRemotive(cfg config.RemotiveConfig, deps Deps) *Remotive {
	return &Remotive{cfg: cfg, src: newSource("Remotive", deps)}
}

// Name implements Provider
func (r *Remotive) Name() string { return "Remotive" }

// Search implements Provider
func (r *Remotive) Search(ctx context.Context, query string) []types.Listing {
	return r.src.run(ctx, query, r.cfg.BaseURL != "", r.search)
}

type remotiveResponse struct {
	Jobs []struct {
		Title       string `json:"title"`
		CompanyName string `json:"company_name"`
		URL         string `json:"url"`
		Salary      string `json:"salary"`
		Description string `json:"description"`
	} `json:"jobs"`
}

func (r *Remotive) search(ctx context.Context, query string) ([]types.Listing, error) {
	opts := r.src.options(fetch.Options{
		Query: url.Values{"search": {query}, "limit": {strconv.Itoa(resultsPerProvider)}},
	})

	var resp remotiveResponse
	if err := fetch.GetJSON(ctx, r.cfg.BaseURL, opts, &resp); err != nil {
		return nil, err
	}

	// the limit parameter is advisory
	jobs := resp.Jobs
	if len(jobs) > resultsPerProvider {
		jobs = jobs[:resultsPerProvider]
	}

	listings := make([]types.Listing, 0, len(jobs))
	for _, j := range jobs {
		listings = append(listings, types.Listing{
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    "Remote",
			URL:         j.URL,
			Salary:      j.Salary,
			Description: j.Description,
		})
	}
	return listings, nil
}
