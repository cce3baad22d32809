package generation

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MustCompileSchema compiles an inline JSON Schema document. Panics on a
// malformed schema, which is a programming error.
func MustCompileSchema(name, doc string) *jsonschema.Schema {
	return jsonschema.MustCompileString(name, doc)
}

// ValidateJSON validates a raw JSON document against a compiled schema.
func ValidateJSON(schema *jsonschema.Schema, raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("schema validation: decode: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
