package declschema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/relschema/relschema/schema"
)

// metaSchema is a JSON-Schema document describing the wire shape Schema.MarshalJSON
// produces, used to give callers a validation error with a JSON-pointer location before
// the stricter, unknown-fields-rejecting Go decode even runs. Grounded on the teacher's
// internal/schema/loader.go LoadJSONSchema/ValidateJSONSchema two-step (gojsonschema
// first, for structural errors; a strict Go decode second, for field-spelling errors).
const metaSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "tables"],
  "properties": {
    "name": {"type": "string"},
    "tables": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "columns"],
        "properties": {
          "name": {"type": "string"},
          "columns": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "type"],
              "properties": {
                "name": {"type": "string"},
                "type": {"type": "object", "required": ["kind"]}
              }
            }
          }
        }
      }
    }
  }
}`

// LoadJSON decodes a Schema from its strict JSON wire form (spec §6.2): first validated
// structurally against metaSchema, then strictly decoded via Schema.UnmarshalJSON (which
// itself rejects unknown fields).
func LoadJSON(data []byte) (schema.Schema, error) {
	schemaLoader := gojsonschema.NewStringLoader(metaSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return schema.Schema{}, &schema.InvalidSchemaError{Reason: err.Error(), Location: "json"}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return schema.Schema{}, &schema.InvalidSchemaError{Reason: fmt.Sprint(msgs), Location: "json"}
	}

	var s schema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return schema.Schema{}, err
	}
	return s, nil
}
