// Package fetch performs the outbound HTTP GETs used by job providers and
// job posting pages, and turns provider HTML into plain text.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is sent unless Options overrides it.
const DefaultUserAgent = "Mozilla/5.0 (compatible; resumex/1.0)"

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes int64 = 4 << 20

// Result holds a fetched response.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

// Error represents an error during fetching. URL never carries the query string,
// since providers pass credentials there.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a request.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	Headers      map[string]string
	Query        url.Values
	MaxBodyBytes int64
	Client       *http.Client
}

// DefaultOptions returns the defaults used when nil Options are passed.
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

func (o *Options) withDefaults() *Options {
	out := DefaultOptions()
	if o == nil {
		return out
	}
	*out = *o
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.UserAgent == "" {
		out.UserAgent = DefaultUserAgent
	}
	if out.MaxBodyBytes <= 0 {
		out.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return out
}

func (o *Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: o.Timeout}
}

// Get issues one GET request. Query values in opts are merged into the URL's own
// query. A non-2xx status returns the Result together with an *Error.
func Get(ctx context.Context, rawURL string, opts *Options) (*Result, error) {
	opts = opts.withDefaults()

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: redact(rawURL), Message: "invalid URL", Cause: err}
	}
	if len(opts.Query) > 0 {
		q := parsed.Query()
		for key, values := range opts.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		parsed.RawQuery = q.Encode()
	}
	safeURL := redact(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, &Error{URL: safeURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := opts.client().Do(req)
	if err != nil {
		// *url.Error repeats the full request URL, credentials included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = safeURL
		}
		return nil, &Error{URL: safeURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBodyBytes+1))
	if err != nil {
		return nil, &Error{URL: safeURL, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > opts.MaxBodyBytes {
		return nil, &Error{
			URL:        safeURL,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response body exceeds %d bytes", opts.MaxBodyBytes),
		}
	}

	result := &Result{
		URL:         parsed.String(),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &Error{
			URL:        safeURL,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}
	return result, nil
}

// GetJSON issues a GET and decodes the JSON body into out.
func GetJSON(ctx context.Context, rawURL string, opts *Options, out any) error {
	opts = opts.withDefaults()
	headers := make(map[string]string, len(opts.Headers)+1)
	headers["Accept"] = "application/json"
	for k, v := range opts.Headers {
		headers[k] = v
	}
	opts.Headers = headers

	result, err := Get(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result.Body, out); err != nil {
		return &Error{URL: redact(rawURL), StatusCode: result.StatusCode, Message: "invalid JSON response", Cause: err}
	}
	return nil
}

// redact drops the query and fragment from rawURL.
func redact(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.User = nil
	return parsed.String()
}
