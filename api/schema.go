package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"watchtower/core"
)

// patternRuleSchema is the JSON Schema custom rules must satisfy before
// they reach the registry. Structural problems are rejected here with a
// field-level message; semantic checks (field names, regex safety) happen
// in the registry.
const patternRuleSchema = `{
  "type": "object",
  "required": ["name", "conditions", "severity", "action"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 200},
    "description": {"type": "string", "maxLength": 1000},
    "severity": {"enum": ["low", "medium", "warning", "high", "critical"]},
    "action": {"enum": ["alert", "block", "monitor"]},
    "conditions": {
      "type": "array",
      "minItems": 1,
      "maxItems": 20,
      "items": {
        "type": "object",
        "required": ["field", "operator"],
        "additionalProperties": false,
        "properties": {
          "field": {"type": "string", "minLength": 1},
          "operator": {"enum": ["equals", "contains", "greater_than", "less_than", "regex"]},
          "value": {"type": "string"},
          "ignore_case": {"type": "boolean"},
          "window_minutes": {"type": "integer", "minimum": 1, "maximum": 1440},
          "required_count": {"type": "integer", "minimum": 1, "maximum": 100000}
        }
      }
    }
  }
}`

var patternSchemaLoader = gojsonschema.NewStringLoader(patternRuleSchema)

// validatePatternJSON checks a raw rule body against the schema.
func validatePatternJSON(body []byte) error {
	result, err := gojsonschema.Validate(patternSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return core.NewConfigurationError("pattern rule is not valid JSON", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return core.NewConfigurationError(
		fmt.Sprintf("pattern rule failed schema validation: %s", strings.Join(problems, "; ")), nil)
}
