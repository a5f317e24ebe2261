// Package validation checks and normalizes single field values against
// their schema definition.
package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Point72/chatom/core/mapping"
	"github.com/Point72/chatom/core/schema"
)

// Coerce validates value against the field type and returns it in
// normalized form: integers as int, floats as float64, timestamps as
// UTC time.Time, string lists as []string, free-form maps as
// *mapping.Mapping. Lists and maps are always fresh copies.
//
// Object fields are structural and handled by the caller.
func Coerce(path string, field schema.Field, value any) (any, *schema.FieldError) {
	switch field.Type {
	case schema.FieldTypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, typeError(path, value, "must be a string")

	case schema.FieldTypeEnum:
		s, ok := value.(string)
		if !ok {
			return nil, typeError(path, value, "must be a string")
		}
		if !field.AllowsValue(s) {
			return nil, &schema.FieldError{
				Path:    path,
				Kind:    schema.KindEnum,
				Value:   value,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(quoted(field.Values), ", ")),
			}
		}
		return s, nil

	case schema.FieldTypeInt:
		if n, ok := toInt(value); ok {
			return n, nil
		}
		return nil, typeError(path, value, "must be an integer")

	case schema.FieldTypeFloat:
		if f, ok := toFloat(value); ok {
			return f, nil
		}
		return nil, typeError(path, value, "must be a number")

	case schema.FieldTypeBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, typeError(path, value, "must be a boolean")

	case schema.FieldTypeTimestamp:
		if t, ok := toTime(value); ok {
			return t, nil
		}
		return nil, typeError(path, value, "must be an RFC 3339 timestamp or unix seconds")

	case schema.FieldTypeStrings:
		if list, ok := toStrings(value); ok {
			return list, nil
		}
		return nil, typeError(path, value, "must be a list of strings")

	case schema.FieldTypeInts:
		if list, ok := toInts(value); ok {
			return list, nil
		}
		return nil, typeError(path, value, "must be a list of integers")

	case schema.FieldTypeList:
		switch l := value.(type) {
		case []any:
			return mapping.CloneValue(l), nil
		case []string:
			out := make([]any, len(l))
			for i, s := range l {
				out[i] = s
			}
			return out, nil
		}
		return nil, typeError(path, value, "must be a list")

	case schema.FieldTypeMap:
		switch m := value.(type) {
		case *mapping.Mapping:
			return m.Clone(), nil
		case map[string]any:
			return mapping.FromMap(m), nil
		}
		return nil, typeError(path, value, "must be a mapping")

	default:
		return nil, typeError(path, value, fmt.Sprintf("unsupported field type %q", field.Type))
	}
}

func typeError(path string, value any, msg string) *schema.FieldError {
	return &schema.FieldError{Path: path, Kind: schema.KindType, Value: value, Message: msg}
}

func quoted(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		if i, ok := toInt(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	default:
		if secs, ok := toInt(v); ok {
			return time.Unix(int64(secs), 0).UTC(), true
		}
		return time.Time{}, false
	}
}

func toStrings(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		out := make([]string, len(l))
		copy(out, l)
		return out, true
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func toInts(v any) ([]int, bool) {
	switch l := v.(type) {
	case []int:
		out := make([]int, len(l))
		copy(out, l)
		return out, true
	case []any:
		out := make([]int, 0, len(l))
		for _, e := range l {
			n, ok := toInt(e)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	default:
		return nil, false
	}
}
