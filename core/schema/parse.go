package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definitions is the top-level layout of a type definition file.
type Definitions struct {
	// Backend is applied to every variant in the file that leaves it empty.
	Backend string `yaml:"backend,omitempty"`
	Types   []Type `yaml:"types"`
}

// ParseFile parses type definitions from a YAML file.
func ParseFile(path string) ([]Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	types, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return types, nil
}

// Parse parses type definitions from YAML bytes.
func Parse(data []byte) ([]Type, error) {
	return ParseForBackend(data, "")
}

// ParseForBackend parses type definitions owned by backend. Variants
// that name no backend, in the file or on the type, belong to it.
func ParseForBackend(data []byte, backend string) ([]Type, error) {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if defs.Backend == "" {
		defs.Backend = backend
	}

	types := make([]Type, 0, len(defs.Types))
	for _, t := range defs.Types {
		if t.IsVariant() && t.Backend == "" {
			t.Backend = defs.Backend
		}
		if err := Validate(t); err != nil {
			return nil, fmt.Errorf("validate type %q: %w", t.Name, err)
		}
		types = append(types, t)
	}

	return types, nil
}

// ParseDir parses all type definitions from a directory, including
// subdirectories. Files are read in lexical order.
func ParseDir(dir string) ([]Type, error) {
	var types []Type

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(p)
			if err != nil {
				return nil, err
			}
			types = append(types, sub...)
			continue
		}

		if !isYAML(entry.Name()) {
			continue
		}

		parsed, err := ParseFile(p)
		if err != nil {
			return nil, err
		}
		types = append(types, parsed...)
	}

	return types, nil
}

// ParseFS parses all type definitions below root in fsys.
func ParseFS(fsys fs.FS, root string) ([]Type, error) {
	var types []Type
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path.Base(p)) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		parsed, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		types = append(types, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return types, nil
}

// Validate validates a type definition.
func Validate(t Type) error {
	var errs []string

	if t.Name == "" {
		errs = append(errs, "type name is required")
	} else if !isValidIdentifier(t.Name) {
		errs = append(errs, fmt.Sprintf("type name %q is not a valid identifier", t.Name))
	}

	if !t.Family.Valid() {
		errs = append(errs, fmt.Sprintf("unknown family %q", t.Family))
	}

	if t.IsVariant() && t.Backend == "" {
		errs = append(errs, "variant requires a backend")
	}
	if !t.IsVariant() && t.Backend != "" {
		errs = append(errs, "backend is only valid on variants (set variant_of)")
	}

	for _, parent := range t.Parents() {
		if parent == t.Name {
			errs = append(errs, fmt.Sprintf("type %q cannot extend itself", parent))
		}
	}

	seen := make(map[string]bool, len(t.Fields))
	for _, field := range t.Fields {
		if !isValidIdentifier(field.Name) {
			errs = append(errs, fmt.Sprintf("field name %q is not a valid identifier", field.Name))
		}
		if seen[field.Name] {
			errs = append(errs, fmt.Sprintf("field %q declared twice", field.Name))
		}
		seen[field.Name] = true

		if err := validateField(field); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// validateField validates a single field definition.
func validateField(field Field) error {
	name := field.Name

	if !isValidFieldType(field.Type) {
		return fmt.Errorf("field %q: unknown type %q", name, field.Type)
	}

	if field.Type == FieldTypeEnum && len(field.Values) == 0 {
		return fmt.Errorf("field %q: enum type requires values", name)
	}

	if field.Type == FieldTypeObject && field.To == "" {
		return fmt.Errorf("field %q: object type requires 'to' target", name)
	}

	if field.Default != nil {
		if err := validateDefault(field); err != nil {
			return err
		}
	}

	for _, c := range field.Constraints {
		if err := c.check(); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}

	return nil
}

// validateDefault validates that a default value matches the field type.
func validateDefault(field Field) error {
	name := field.Name
	switch field.Type {
	case FieldTypeString:
		if _, ok := field.Default.(string); !ok {
			return fmt.Errorf("field %q: default must be a string", name)
		}
	case FieldTypeInt:
		switch field.Default.(type) {
		case int, int64:
			return nil
		default:
			return fmt.Errorf("field %q: default must be an integer", name)
		}
	case FieldTypeFloat:
		switch field.Default.(type) {
		case int, int64, float64:
			return nil
		default:
			return fmt.Errorf("field %q: default must be a number", name)
		}
	case FieldTypeBool:
		if _, ok := field.Default.(bool); !ok {
			return fmt.Errorf("field %q: default must be a boolean", name)
		}
	case FieldTypeEnum:
		s, ok := field.Default.(string)
		if !ok {
			return fmt.Errorf("field %q: default must be a string", name)
		}
		if !field.AllowsValue(s) {
			return fmt.Errorf("field %q: default %q is not a valid enum value", name, s)
		}
	case FieldTypeStrings, FieldTypeInts, FieldTypeList:
		if _, ok := field.Default.([]any); !ok {
			return fmt.Errorf("field %q: default must be a list", name)
		}
	case FieldTypeMap:
		if _, ok := field.Default.(map[string]any); !ok {
			return fmt.Errorf("field %q: default must be a mapping", name)
		}
	case FieldTypeObject, FieldTypeTimestamp:
		return fmt.Errorf("field %q: %s fields cannot declare a default", name, field.Type)
	}
	return nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// isValidIdentifier checks if a string is a valid identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
