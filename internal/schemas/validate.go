// Package schemas validates LLM payloads against the embedded JSON Schema documents.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	rootschemas "github.com/jonathan/resumex/schemas"
)

// Kind names a payload shape; it selects <kind>.schema.json
type Kind string

// Payload kinds produced by the structured extractor
const (
	KindProfile      Kind = "profile"
	KindRequirements Kind = "requirements"
	KindMatch        Kind = "match"
	KindImprovements Kind = "improvements"
)

// Kinds lists every known payload kind
func Kinds() []Kind {
	return []Kind{KindProfile, KindRequirements, KindMatch, KindImprovements}
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Kind   Kind
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s payload failed schema validation:", ve.Kind)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, err.Field, err.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var (
	compiled   = make(map[Kind]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

func load(kind Kind) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[kind]; ok {
		return s, nil
	}

	path := string(kind) + ".schema.json"
	data, err := rootschemas.Files.ReadFile(path)
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "unknown payload kind", Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "schema does not compile", Cause: err}
	}
	compiled[kind] = s
	return s, nil
}

// Validate checks payload against the schema for kind
func Validate(kind Kind, payload []byte) error {
	schema, err := load(kind)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("failed to read %s payload: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Kind:   kind,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
