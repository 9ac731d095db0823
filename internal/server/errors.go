// Package server provides the HTTP REST API for resume analysis and job search.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/resumex/internal/fetch"
	"github.com/jonathan/resumex/internal/ingestion"
	"github.com/jonathan/resumex/internal/parsing"
	"github.com/jonathan/resumex/internal/types"
)

// ErrBadRequest is a malformed request body or form
type ErrBadRequest struct {
	Message string
	Cause   error
}

func (e *ErrBadRequest) Error() string {
	return e.Message
}

func (e *ErrBadRequest) Unwrap() error {
	return e.Cause
}

// ErrNotConfigured is returned when a feature needs a collaborator that is not set up
type ErrNotConfigured struct {
	Feature string
}

func (e *ErrNotConfigured) Error() string {
	return e.Feature + " is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error, looking
// through wrapped causes.
func HTTPStatus(err error) int {
	var (
		badRequest    *ErrBadRequest
		validation    *types.ValidationError
		unsupported   *ingestion.UnsupportedFormatError
		extraction    *ingestion.ExtractionError
		apiCall       *parsing.APICallError
		malformed     *parsing.MalformedOutputError
		fetchErr      *fetch.Error
		notConfigured *ErrNotConfigured
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &badRequest), errors.As(err, &validation), errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &extraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiCall), errors.As(err, &malformed), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &notConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
