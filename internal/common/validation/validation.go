// Package validation validates knowledge base documents against a JSON schema.
package validation

import (
	"fmt"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
)

// knowledgeDocSchema is the built-in schema used when no schema file is configured.
var knowledgeDocSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"id", "title", "content"},
	"properties": map[string]interface{}{
		"id":       map[string]interface{}{"type": "string", "minLength": 1},
		"title":    map[string]interface{}{"type": "string", "minLength": 1},
		"content":  map[string]interface{}{"type": "string", "minLength": 1},
		"category": map[string]interface{}{"type": "string"},
		"tags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"metadata": map[string]interface{}{"type": "object"},
	},
}

// Validator checks documents against a JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewDocumentValidator builds a validator with the built-in knowledge doc schema.
func NewDocumentValidator() (*Validator, error) {
	return NewValidator(gojsonschema.NewGoLoader(knowledgeDocSchema))
}

// NewValidatorFromFile builds a validator from a schema file on disk.
// gojsonschema resolves file references against absolute URIs only.
func NewValidatorFromFile(path string) (*Validator, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve schema path %s: %w", path, err)
	}
	return NewValidator(gojsonschema.NewReferenceLoader("file://" + abs))
}

// NewValidator compiles the schema once so per-document validation is cheap.
func NewValidator(loader gojsonschema.JSONLoader) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks doc against the schema and returns a descriptive error
// listing every violation.
func (v *Validator) Validate(doc map[string]interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("document validation failed: %v", errs)
	}

	return nil
}
