package schema

import (
	"fmt"
	"strings"
)

// ErrorKind tags why a field failed to construct.
type ErrorKind int

const (
	// KindMissing: a required field is absent, null or empty.
	KindMissing ErrorKind = iota + 1
	// KindType: the value has the wrong type.
	KindType
	// KindEnum: the value is not one of the enum values.
	KindEnum
	// KindConstraint: a field constraint rejected the value.
	KindConstraint
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindType:
		return "type"
	case KindEnum:
		return "enum"
	case KindConstraint:
		return "constraint"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind name in JSON and YAML output.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FieldError describes one field that failed to construct.
// Path is dotted for nested fields ("user.id").
type FieldError struct {
	Path    string    `json:"path"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Value   any       `json:"value,omitempty"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// FieldErrors is the failure returned when an instance cannot be constructed.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Paths returns the paths of errors of the given kind, in order.
func (e FieldErrors) Paths(kind ErrorKind) []string {
	var paths []string
	for _, fe := range e {
		if fe.Kind == kind {
			paths = append(paths, fe.Path)
		}
	}
	return paths
}
