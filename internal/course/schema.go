package course

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// outlineSchema describes a course document as stored in the catalog.
const outlineSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "chapters"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "chapters": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "order_index": {"type": "integer"},
          "lectures": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string"},
                "order_index": {"type": "integer"},
                "duration_seconds": {"type": "integer", "minimum": 0},
                "requires_quiz": {"type": "boolean"},
                "quizzes": {"type": "array", "items": {"type": "string", "minLength": 1}}
              }
            }
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(outlineSchema)

// Validate checks a decoded course document against the outline schema.
func Validate(doc any) error {
	return validate(gojsonschema.NewGoLoader(doc))
}

// ValidateJSON checks a raw JSON course document against the outline schema.
func ValidateJSON(data []byte) error {
	return validate(gojsonschema.NewBytesLoader(data))
}

func validate(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, doc)
	if err != nil {
		return fmt.Errorf("validating course document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid course document: %s", strings.Join(msgs, "; "))
}
