//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError reports structured input that failed validation before any stage ran
type ValidationError struct {
	Message string
	Field   string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Validate checks v against its struct tags. name labels the input in the error.
func Validate(name string, v any) error {
	if v == nil {
		return &ValidationError{Field: name, Message: "is required"}
	}
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Field: name, Message: err.Error(), Cause: err}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Field: name, Message: strings.Join(msgs, "; "), Cause: err}
}

// Validate checks the profile fields.
func (p *ParsedProfile) Validate() error {
	if p == nil {
		return &ValidationError{Field: "resume", Message: "is required"}
	}
	return Validate("resume", p)
}

// Validate checks the requirement analysis fields.
func (r *RequirementAnalysis) Validate() error {
	if r == nil {
		return &ValidationError{Field: "jd", Message: "is required"}
	}
	return Validate("jd", r)
}

// Validate checks score bounds.
func (m *MatchResult) Validate() error {
	if m == nil {
		return &ValidationError{Field: "match", Message: "is required"}
	}
	return Validate("match", m)
}

// Validate checks each improvement.
func (s *ImprovementSet) Validate() error {
	if s == nil {
		return &ValidationError{Field: "improvements", Message: "is required"}
	}
	return Validate("improvements", s)
}
