package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON Schema document.
type Schema struct {
	raw    json.RawMessage
	schema *gojsonschema.Schema
}

var compiled sync.Map // canonical schema text -> *Schema

// Compile parses and compiles a JSON Schema. Compiled schemas are memoized
// by their canonical form, so repeated calls with the same schema are cheap.
func Compile(raw json.RawMessage) (*Schema, error) {
	canonical, err := Canonicalize(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}
	if s, ok := compiled.Load(string(canonical)); ok {
		return s.(*Schema), nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(canonical))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	s := &Schema{raw: canonical, schema: schema}
	actual, _ := compiled.LoadOrStore(string(canonical), s)
	return actual.(*Schema), nil
}

// Raw returns the canonical schema bytes.
func (s *Schema) Raw() json.RawMessage {
	return s.raw
}

// Validate checks a JSON document. A document that is not JSON at all is
// reported as a single INVALID_JSON error on the root.
func (s *Schema) Validate(doc []byte) *ValidationResult {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "INVALID_JSON",
			}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return out
}

// ValidateValue validates an in-memory Go value the way build-response
// style callers hand over decoded maps.
func (s *Schema) ValidateValue(v interface{}) *ValidationResult {
	data, err := json.Marshal(v)
	if err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}},
		}
	}
	return s.Validate(data)
}

// Canonicalize re-encodes a JSON document with sorted object keys and no
// insignificant whitespace, so semantically equal documents compare equal.
func Canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	// encoding/json sorts map keys on output.
	return json.Marshal(v)
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and anything nested under it.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
