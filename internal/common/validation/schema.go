// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// templateSchema constrains operator-supplied reminder template documents
// stored in the settings table. Placeholder contents are free-form; only the
// document shape is enforced here.
const templateSchema = `{
	"type": "object",
	"properties": {
		"subject": {"type": "string", "minLength": 1},
		"content": {"type": "string", "minLength": 1}
	},
	"required": ["subject", "content"],
	"additionalProperties": false
}`

// ValidateTemplateDocument checks a raw JSON template document against the
// template schema. A non-nil error means the caller must fall back to the
// built-in default template.
func ValidateTemplateDocument(doc string) error {
	schemaLoader := gojsonschema.NewStringLoader(templateSchema)
	documentLoader := gojsonschema.NewStringLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("template validation failed: %v", errs)
	}

	return nil
}
