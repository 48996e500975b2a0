package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"adstudio/internal/domain"
)

// Schema is a compiled JSON schema used to check request bodies and model
// output before they are decoded into Go types.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Schema   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Schema, strings.Join(e.Problems, "; "))
}

// Unwrap lets callers match validation failures with domain.ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidInput
}

// MustCompile compiles a schema definition and panics on a malformed schema.
func MustCompile(name, definition string) *Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definition))
	if err != nil {
		panic(fmt.Errorf("jsoncfg: compile %s schema: %w", name, err))
	}
	return &Schema{name: name, compiled: compiled}
}

// Name returns the schema name used in error messages.
func (s *Schema) Name() string {
	return s.name
}

// Validate checks raw JSON against the schema.
func (s *Schema) Validate(raw []byte) error {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{Schema: s.name, Problems: []string{"malformed JSON: " + err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.String()
	}
	return &ValidationError{Schema: s.name, Problems: problems}
}

// Decode validates raw JSON and unmarshals it into out.
func (s *Schema) Decode(raw []byte, out any) error {
	if err := s.Validate(raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ValidationError{Schema: s.name, Problems: []string{err.Error()}}
	}
	return nil
}

const productDataDefinition = `{
	"type": "object",
	"required": ["title", "description", "price", "features", "imageUrl"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string", "minLength": 10},
		"price": {"type": "string", "minLength": 1},
		"features": {"type": "array", "maxItems": 5, "items": {"type": "string"}},
		"imageUrl": {
			"anyOf": [
				{"type": "string", "format": "uri", "pattern": "^https?://"},
				{"type": "string", "maxLength": 0}
			]
		}
	}
}`

// Variations accept the looser product shape produced by earlier responses;
// a missing image is rejected later with domain.ErrMissingProductImage.
const variationProductDefinition = `{
	"type": "object",
	"required": ["title", "description", "price"],
	"properties": {
		"title": {"type": "string"},
		"description": {"type": "string"},
		"price": {"type": "string"},
		"features": {"type": "array", "items": {"type": "string"}},
		"imageUrl": {"type": "string"}
	}
}`

const adPromptDefinition = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["style", "background", "mainElements", "text", "colors", "composition", "mood"],
	"properties": {
		"style": {"type": "string"},
		"background": {"type": "string"},
		"mainElements": {"type": "string"},
		"text": {
			"type": "object",
			"additionalProperties": false,
			"required": ["headline", "tagline", "callToAction"],
			"properties": {
				"headline": {"type": "string"},
				"tagline": {"type": "string"},
				"callToAction": {"type": "string"}
			}
		},
		"colors": {"type": "string"},
		"composition": {"type": "string"},
		"mood": {"type": "string"}
	}
}`

var (
	// ProductDataSchema validates a ProductData document on its own.
	ProductDataSchema = MustCompile("product data", productDataDefinition)

	// AdPromptSchema validates the exact AdPrompt shape.
	AdPromptSchema = MustCompile("ad prompt", adPromptDefinition)

	ScrapeRequestSchema = MustCompile("scrape request", `{
		"type": "object",
		"required": ["url"],
		"properties": {
			"url": {"type": "string", "format": "uri", "pattern": "^https?://"}
		}
	}`)

	GenerateAdRequestSchema = MustCompile("generate ad request", `{
		"type": "object",
		"required": ["productData"],
		"properties": {"productData": `+productDataDefinition+`}
	}`)

	VariationRequestSchema = MustCompile("variation request", `{
		"type": "object",
		"required": ["originalPrompt", "productData"],
		"properties": {
			"originalPrompt": {"type": "object"},
			"productData": `+variationProductDefinition+`
		}
	}`)

	EditImageRequestSchema = MustCompile("edit image request", `{
		"type": "object",
		"required": ["imageBase64", "prompt"],
		"properties": {
			"imageBase64": {"type": "string", "minLength": 1},
			"prompt": {"type": "string", "minLength": 1}
		}
	}`)
)

// DecodeAdPrompt validates raw model output against AdPromptSchema and
// decodes it. Any mismatch is reported as domain.ErrInvalidPrompt.
func DecodeAdPrompt(raw []byte) (domain.AdPrompt, error) {
	var prompt domain.AdPrompt
	if err := AdPromptSchema.Decode(raw, &prompt); err != nil {
		return domain.AdPrompt{}, fmt.Errorf("%w: %s", domain.ErrInvalidPrompt, err.Error())
	}
	return prompt, nil
}
