package conversion

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationResult reports whether an instance satisfies a backend
// variant. Valid is true iff MissingRequired and InvalidFields are empty.
type ValidationResult struct {
	Valid           bool              `json:"valid" yaml:"valid"`
	MissingRequired []string          `json:"missing_required" yaml:"missing_required"`
	InvalidFields   map[string]string `json:"invalid_fields" yaml:"invalid_fields"`
	Warnings        []string          `json:"warnings" yaml:"warnings"`
}

// NewValidationResult returns an empty, valid result.
func NewValidationResult() ValidationResult {
	return ValidationResult{
		Valid:           true,
		MissingRequired: []string{},
		InvalidFields:   map[string]string{},
		Warnings:        []string{},
	}
}

// AddMissing records a missing required field.
func (r *ValidationResult) AddMissing(path string) {
	r.MissingRequired = append(r.MissingRequired, path)
	r.Valid = r.IsValid()
}

// AddInvalid records an invalid field. A later message for the same path
// replaces the earlier one.
func (r *ValidationResult) AddInvalid(path, message string) {
	if r.InvalidFields == nil {
		r.InvalidFields = map[string]string{}
	}
	r.InvalidFields[path] = message
	r.Valid = r.IsValid()
}

// AddWarning records a warning. Warnings never affect validity.
func (r *ValidationResult) AddWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}

// IsValid recomputes validity from the error collections.
func (r ValidationResult) IsValid() bool {
	return len(r.MissingRequired) == 0 && len(r.InvalidFields) == 0
}

// String summarizes the result on one line.
func (r ValidationResult) String() string {
	if r.IsValid() {
		return "valid"
	}
	var parts []string
	if len(r.MissingRequired) > 0 {
		parts = append(parts, "missing: "+strings.Join(r.MissingRequired, ", "))
	}
	if len(r.InvalidFields) > 0 {
		paths := make([]string, 0, len(r.InvalidFields))
		for p := range r.InvalidFields {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		invalid := make([]string, len(paths))
		for i, p := range paths {
			invalid[i] = fmt.Sprintf("%s (%s)", p, r.InvalidFields[p])
		}
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return strings.Join(parts, "; ")
}
