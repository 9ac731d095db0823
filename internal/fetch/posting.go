package fetch

import (
	"context"
	"net/url"
	"strings"
)

// Board is a known applicant tracking system hosting job postings.
type Board string

// Recognized boards
const (
	BoardGreenhouse Board = "greenhouse"
	BoardLever      Board = "lever"
	BoardWorkday    Board = "workday"
	BoardUnknown    Board = "unknown"
)

type boardRule struct {
	board   Board
	hosts   []string
	content []string
	noise   []string
}

var boardRules = []boardRule{
	{
		board: BoardGreenhouse,
		hosts: []string{"greenhouse.io"},
		content: []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content",
			".job-post-container",
		},
		noise: []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	{
		board: BoardLever,
		hosts: []string{"lever.co"},
		content: []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		},
		noise: []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	{
		board: BoardWorkday,
		hosts: []string{"workday.com", "myworkdayjobs.com"},
		content: []string{
			"[data-automation-id='jobDescription']",
			".job-description",
		},
		noise: []string{"[data-automation-id='applyButton']", ".application-section"},
	},
}

// application forms, EEO boilerplate and share widgets
var commonNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".apply-button-container",
	".eeo-statement",
	".eeo-section",
	".voluntary-disclosure",
	".social-share",
	".share-buttons",
	".cookie-consent",
	".gdpr-notice",
}

// DetectBoard identifies the posting board from a URL's host.
func DetectBoard(rawURL string) Board {
	if rule := ruleFor(rawURL); rule != nil {
		return rule.board
	}
	return BoardUnknown
}

func ruleFor(rawURL string) *boardRule {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(parsed.Hostname())
	for i := range boardRules {
		for _, h := range boardRules[i].hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return &boardRules[i]
			}
		}
	}
	return nil
}

// PostingText fetches a job posting page and returns its description text,
// using board-specific selectors when the host is recognized.
func PostingText(ctx context.Context, rawURL string, opts *Options) (string, error) {
	result, err := Get(ctx, rawURL, opts)
	if err != nil {
		return "", err
	}

	content := PostingSelectors()
	noise := commonNoise
	if rule := ruleFor(rawURL); rule != nil {
		content = append(append([]string{}, rule.content...), content...)
		noise = append(append([]string{}, commonNoise...), rule.noise...)
	}

	text, err := ExtractMainText(string(result.Body), content, noise...)
	if err != nil {
		return "", &Error{URL: redact(rawURL), StatusCode: result.StatusCode, Message: "unreadable page", Cause: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &Error{URL: redact(rawURL), StatusCode: result.StatusCode, Message: "no posting text found"}
	}
	return text, nil
}
