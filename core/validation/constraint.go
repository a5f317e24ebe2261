package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Point72/chatom/core/schema"
)

// patterns caches compiled pattern constraints by source.
var patterns sync.Map

// CheckConstraints validates the value against the field constraints.
func CheckConstraints(path string, field schema.Field, value any) schema.FieldErrors {
	var errs schema.FieldErrors
	for _, c := range field.Constraints {
		if err := CheckConstraint(path, value, c); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// CheckConstraint evaluates one constraint against a coerced value and
// returns a KindConstraint error on violation. A constraint that does
// not cover the value's type, or whose parameter is unusable, passes.
func CheckConstraint(path string, value any, c schema.Constraint) *schema.FieldError {
	msg := violation(value, c)
	if msg == "" {
		return nil
	}
	if c.Message != "" {
		msg = c.Message
	}
	return &schema.FieldError{Path: path, Kind: schema.KindConstraint, Value: value, Message: msg}
}

// violation returns the generated message for a failed constraint, or
// "" when the value passes.
func violation(value any, c schema.Constraint) string {
	switch c.Type {
	case schema.ConstraintMin, schema.ConstraintMax:
		v, ok := toFloat(value)
		limit, okLimit := toFloat(c.Value)
		switch {
		case !ok || !okLimit:
		case c.Type == schema.ConstraintMin && v < limit:
			return fmt.Sprintf("must be at least %v", c.Value)
		case c.Type == schema.ConstraintMax && v > limit:
			return fmt.Sprintf("must be at most %v", c.Value)
		}

	case schema.ConstraintMinLength, schema.ConstraintMaxLength:
		s, ok := value.(string)
		limit, okLimit := toInt(c.Value)
		n := utf8.RuneCountInString(s)
		switch {
		case !ok || !okLimit:
		case c.Type == schema.ConstraintMinLength && n < limit:
			return fmt.Sprintf("must be at least %d characters", limit)
		case c.Type == schema.ConstraintMaxLength && n > limit:
			return fmt.Sprintf("must be at most %d characters", limit)
		}

	case schema.ConstraintPattern:
		s, ok := value.(string)
		re := compiled(c.Value)
		if ok && re != nil && !re.MatchString(s) {
			return fmt.Sprintf("must match %s", re)
		}

	case schema.ConstraintNotEmpty:
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return "must not be empty"
		}

	case schema.ConstraintOneOf:
		allowed, ok := printed(c.Value)
		if !ok {
			return ""
		}
		got := fmt.Sprint(value)
		for _, a := range allowed {
			if a == got {
				return ""
			}
		}
		return fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", "))
	}
	return ""
}

func compiled(v any) *regexp.Regexp {
	src, ok := v.(string)
	if !ok {
		return nil
	}
	if re, ok := patterns.Load(src); ok {
		return re.(*regexp.Regexp)
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil
	}
	patterns.Store(src, re)
	return re
}

func printed(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, len(l))
		for i, e := range l {
			out[i] = fmt.Sprint(e)
		}
		return out, true
	default:
		return nil, false
	}
}
