// Package util holds small internal helpers shared by the tool and agent
// packages: argument validation against declared parameter types and value
// stringification for tool outputs. It lives in internal to avoid committing
// to public API stability prematurely.
package util

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ValidationError represents parameter validation errors with detailed
// information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for parameter '%s': %s", e.Field, e.Message)
}

// ValidateArgs checks structured arguments against a declared parameter type
// map (name -> type name). Every declared parameter is required; extra
// arguments are rejected so a misparsed tool call fails loudly instead of
// silently dropping data. Declared types use the JSON vocabulary: string,
// int, float, bool, array, object, any.
func ValidateArgs(args map[string]any, params map[string]string) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := args[name]
		if !ok {
			return &ValidationError{Field: name, Message: "required parameter is missing"}
		}
		if typ := params[name]; !matchesType(value, typ) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", typ, value),
			}
		}
	}

	for name := range args {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Value: args[name], Message: "unexpected parameter"}
		}
	}

	return nil
}

// matchesType reports whether a JSON-decoded value satisfies the declared
// type name. JSON numbers always decode to float64, so int accepts whole
// float64 values.
func matchesType(value any, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "int":
		switch v := value.(type) {
		case int:
			return true
		case float64:
			return v == float64(int64(v))
		default:
			return false
		}
	case "float", "number":
		switch value.(type) {
		case float64, int:
			return true
		default:
			return false
		}
	case "bool":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "any", "":
		return true
	default:
		return false
	}
}

// Stringify converts an arbitrary tool result to its transcript form.
// Strings pass through untouched, everything else is JSON encoded with a
// fmt.Sprint fallback for unmarshalable values.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case error:
		return s.Error()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}
