package validation

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	"github.com/xeipuuv/gojsonschema"
)

const (
	InteractionEventSchema       = "interaction-event"
	RecommendationResponseSchema = "recommendation-response"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

// SchemaValidator handles JSON schema validation of interaction events and
// recommendation payloads
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator returns a validator with the embedded schemas loaded.
func NewSchemaValidator() (*SchemaValidator, error) {
	sv := &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema)}
	if err := sv.LoadSchemaFromFS(embeddedSchemas, "schemas"); err != nil {
		return nil, err
	}
	return sv, nil
}

// LoadSchemaFromFS loads every known schema from dir in fsys.
func (sv *SchemaValidator) LoadSchemaFromFS(fsys fs.FS, dir string) error {
	for _, name := range []string{InteractionEventSchema, RecommendationResponseSchema} {
		schemaPath := path.Join(dir, name+".json")

		schemaBytes, err := fs.ReadFile(fsys, schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file %s: %w", schemaPath, err)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
		if err != nil {
			return fmt.Errorf("failed to load schema %s: %w", name, err)
		}
		sv.schemas[name] = schema
	}
	return nil
}

// ValidateInteractionEvent validates a raw or decoded interaction event.
func (sv *SchemaValidator) ValidateInteractionEvent(data interface{}) *ValidationResult {
	return sv.validate(InteractionEventSchema, data)
}

// ValidateRecommendationResponse validates a recommendation list payload.
func (sv *SchemaValidator) ValidateRecommendationResponse(data interface{}) *ValidationResult {
	return sv.validate(RecommendationResponseSchema, data)
}

// validate performs the actual validation against a named schema
func (sv *SchemaValidator) validate(schemaName string, data interface{}) *ValidationResult {
	schema, exists := sv.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Message: fmt.Sprintf("Schema '%s' not found", schemaName),
				Code:    "SCHEMA_NOT_FOUND",
			}},
		}
	}

	var documentLoader gojsonschema.JSONLoader
	switch v := data.(type) {
	case string:
		documentLoader = gojsonschema.NewStringLoader(v)
	case []byte:
		documentLoader = gojsonschema.NewBytesLoader(v)
	default:
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return &ValidationResult{
				Valid: false,
				Errors: []ValidationError{{
					Field:   "data",
					Message: fmt.Sprintf("Failed to marshal data to JSON: %v", err),
					Code:    "JSON_MARSHAL_ERROR",
				}},
			}
		}
		documentLoader = gojsonschema.NewBytesLoader(jsonBytes)
	}

	result, err := schema.Validate(documentLoader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "document",
				Message: fmt.Sprintf("Malformed document: %v", err),
				Code:    "MALFORMED_DOCUMENT",
			}},
		}
	}

	validationResult := &ValidationResult{
		Valid:  result.Valid(),
		Errors: make([]ValidationError, 0),
	}
	for _, resultErr := range result.Errors() {
		validationResult.Errors = append(validationResult.Errors, ValidationError{
			Field:   resultErr.Field(),
			Message: resultErr.Description(),
			Code:    "VALIDATION_ERROR",
			Value:   resultErr.Value(),
			Context: resultErr.Context().String(),
		})
	}
	return validationResult
}

// ValidationResult represents the result of a validation operation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Value   interface{} `json:"value,omitempty"`
	Context string      `json:"context,omitempty"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// Err returns nil for a valid result and otherwise an error naming the first
// failure.
func (vr *ValidationResult) Err() error {
	if vr.Valid {
		return nil
	}
	if len(vr.Errors) == 0 {
		return fmt.Errorf("document is invalid")
	}
	return vr.Errors[0]
}

// ToAPIError converts validation errors to the API error envelope
func (vr *ValidationResult) ToAPIError() map[string]interface{} {
	if vr.Valid {
		return nil
	}

	fieldErrors := make(map[string][]string)
	for _, err := range vr.Errors {
		if err.Field != "" {
			fieldErrors[err.Field] = append(fieldErrors[err.Field], err.Message)
		}
	}

	details := map[string]interface{}{"validationErrors": vr.Errors}
	if len(fieldErrors) > 0 {
		details["fieldErrors"] = fieldErrors
	}

	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "VALIDATION_ERROR",
			"message": "Request validation failed",
			"details": details,
		},
	}
}
