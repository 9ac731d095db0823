package parsing

import (
	"fmt"

	"github.com/jonathan/resumex/internal/schemas"
)

// APICallError represents a failure reaching the LLM. It is fatal to the stage.
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// MalformedOutputError means the model answered but the payload could not be
// recovered as a JSON object of the expected kind
type MalformedOutputError struct {
	Kind    schemas.Kind
	Message string
	Cause   error
}

func (e *MalformedOutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s output: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed %s output: %s", e.Kind, e.Message)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Cause
}
