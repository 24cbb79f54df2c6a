package tool

import (
	"encoding/json"
	"fmt"
	"math"
)

// Validator checks tool input against the declared schema before dispatch.
type Validator interface {
	Validate(input map[string]any, schema *JSONSchema) error
}

// DefaultValidator covers the subset of JSON Schema the tool catalog
// actually uses: required fields plus primitive type checks on declared
// properties. Keys the schema does not declare pass through untouched so
// the handler can coerce them.
type DefaultValidator struct{}

// Validate reports the first violation found, or nil.
func (DefaultValidator) Validate(input map[string]any, schema *JSONSchema) error {
	if schema == nil {
		return nil
	}

	for _, field := range schema.Required {
		if _, ok := input[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	for key, value := range input {
		want := declaredType(schema.Properties[key])
		if want == "" {
			continue
		}
		if !typeMatches(value, want) {
			return fmt.Errorf("field %s: expected %s but got %T", key, want, value)
		}
	}
	return nil
}

// declaredType digs the "type" keyword out of a property definition, which
// may arrive as a raw map or a nested *JSONSchema.
func declaredType(definition any) string {
	switch def := definition.(type) {
	case map[string]any:
		s, _ := def["type"].(string)
		return s
	case *JSONSchema:
		return def.Type
	}
	return ""
}

// typeMatches is permissive about schema types it does not know.
func typeMatches(value any, want string) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		return isIntegral(value)
	case "number":
		return isNumeric(value)
	case "object":
		m, ok := value.(map[string]any)
		return ok && m != nil
	case "array":
		switch value.(type) {
		case []any, []string:
			return true
		}
		return false
	}
	return true
}

func isNumeric(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

// isIntegral accepts whole-valued floats because JSON decoding turns every
// number into float64.
func isIntegral(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return float64(v) == math.Trunc(float64(v))
	case float64:
		return v == math.Trunc(v)
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
