// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationResult carries the outcome of validating a request body.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError is a single field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema wraps a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// MustCompile compiles a schema document and panics on error.
// Schemas are package-level constants; a bad one is a programming error.
func MustCompile(schemaJSON string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid schema: %v", err))
	}
	return &Schema{schema: s}
}

// ValidateBytes validates a raw JSON request body against the schema.
func (s *Schema) ValidateBytes(body []byte) *ValidationResult {
	return s.validate(gojsonschema.NewBytesLoader(body))
}

// ValidateMap validates an already-decoded body against the schema.
func (s *Schema) ValidateMap(body map[string]interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(body))
}

func (s *Schema) validate(loader gojsonschema.JSONLoader) *ValidationResult {
	res, err := s.schema.Validate(loader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(body)",
				Message: "request body is not valid JSON",
				Code:    "INVALID_JSON",
			}},
		}
	}

	if res.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		errs = append(errs, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    re.Type(),
		})
	}
	return &ValidationResult{Valid: false, Errors: errs}
}
