package schema

// Field defines one field of a type.
type Field struct {
	// Name is the field name, unique within a type.
	Name string `yaml:"name" json:"name"`

	// Type is the field type. See FieldType constants.
	Type FieldType `yaml:"type" json:"type"`

	// Required marks a field that must carry a non-empty value.
	// Fields are optional unless marked.
	Required *bool `yaml:"required,omitempty" json:"required,omitempty"`

	// Nullable admits null as a value.
	Nullable bool `yaml:"nullable,omitempty" json:"nullable,omitempty"`

	// Default is applied when the field is absent.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`

	// Values lists valid values for enum fields.
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`

	// To names the nested type of object fields.
	To string `yaml:"to,omitempty" json:"to,omitempty"`

	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Constraints defines validation rules for this field.
	Constraints []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// FieldType represents the type of a schema field.
type FieldType string

const (
	// Primitive types
	FieldTypeString    FieldType = "string"
	FieldTypeInt       FieldType = "int"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBool      FieldType = "bool"
	FieldTypeTimestamp FieldType = "timestamp"

	// Special types
	FieldTypeEnum    FieldType = "enum"    // Requires Values
	FieldTypeStrings FieldType = "strings" // Array of strings
	FieldTypeInts    FieldType = "ints"    // Array of ints
	FieldTypeList    FieldType = "list"    // Array of anything
	FieldTypeMap     FieldType = "map"     // Free-form nested mapping
	FieldTypeObject  FieldType = "object"  // Requires To
)

// IsRequired returns whether the field is required.
func (f Field) IsRequired() bool {
	if f.Required != nil {
		return *f.Required
	}
	return false
}

// HasDefault reports whether absence of the field can be filled in.
// Nullable fields default to null.
func (f Field) HasDefault() bool {
	return f.Default != nil || f.Nullable
}

// AllowsValue reports whether v is one of the enum values.
func (f Field) AllowsValue(v string) bool {
	for _, allowed := range f.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// isValidFieldType checks if a field type is valid.
func isValidFieldType(t FieldType) bool {
	switch t {
	case FieldTypeString, FieldTypeInt, FieldTypeFloat, FieldTypeBool,
		FieldTypeTimestamp, FieldTypeEnum, FieldTypeStrings, FieldTypeInts,
		FieldTypeList, FieldTypeMap, FieldTypeObject:
		return true
	default:
		return false
	}
}
