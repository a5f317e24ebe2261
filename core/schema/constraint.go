package schema

import (
	"fmt"
	"regexp"
)

// Constraint restricts the values a field accepts beyond its type.
// Message, when set, replaces the generated violation message.
type Constraint struct {
	Type    ConstraintType `yaml:"type" json:"type"`
	Value   any            `yaml:"value,omitempty" json:"value,omitempty"`
	Message string         `yaml:"message,omitempty" json:"message,omitempty"`
}

// ConstraintType names a constraint.
type ConstraintType string

// Bounds apply to numbers, lengths and patterns to strings. one_of
// compares the printed value against a list.
const (
	ConstraintMin       ConstraintType = "min"
	ConstraintMax       ConstraintType = "max"
	ConstraintMinLength ConstraintType = "min_length"
	ConstraintMaxLength ConstraintType = "max_length"
	ConstraintPattern   ConstraintType = "pattern"
	ConstraintNotEmpty  ConstraintType = "not_empty"
	ConstraintOneOf     ConstraintType = "one_of"
)

// check reports a constraint whose parameter cannot be evaluated.
func (c Constraint) check() error {
	switch c.Type {
	case ConstraintMin, ConstraintMax:
		switch c.Value.(type) {
		case int, int64, float64:
			return nil
		}
		return fmt.Errorf("%s needs a numeric value, got %T", c.Type, c.Value)
	case ConstraintMinLength, ConstraintMaxLength:
		if n, ok := c.Value.(int); ok && n >= 0 {
			return nil
		}
		return fmt.Errorf("%s needs a non-negative integer, got %v", c.Type, c.Value)
	case ConstraintPattern:
		s, ok := c.Value.(string)
		if !ok {
			return fmt.Errorf("pattern needs a string, got %T", c.Value)
		}
		if _, err := regexp.Compile(s); err != nil {
			return fmt.Errorf("pattern %q: %w", s, err)
		}
		return nil
	case ConstraintNotEmpty:
		return nil
	case ConstraintOneOf:
		if list, ok := c.Value.([]any); ok && len(list) > 0 {
			return nil
		}
		return fmt.Errorf("one_of needs a non-empty list")
	default:
		return fmt.Errorf("unknown constraint %q", c.Type)
	}
}
