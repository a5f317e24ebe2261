// Package catalog holds every known type descriptor and derives the
// effective field layout and ancestor chain of each type.
package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Point72/chatom/core/schema"
)

// Derived is the fully expanded form of a type used at runtime.
type Derived struct {
	// Source is the original type definition.
	Source schema.Type

	// Fields contains inherited and own fields in layout order.
	Fields []schema.Field

	// Ancestors lists every parent type breadth-first in declared order,
	// without the type itself.
	Ancestors []string
}

// FieldNames returns the effective field names in order.
func (d Derived) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the effective field with the given name.
func (d Derived) Field(name string) (schema.Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return schema.Field{}, false
}

// Catalog manages registered type descriptors.
type Catalog struct {
	mu sync.RWMutex

	types map[string]Derived
	order []string
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{types: make(map[string]Derived)}
}

// Add registers a type. Its parents must already be registered.
func (c *Catalog) Add(t schema.Type) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.types[t.Name]; exists {
		return fmt.Errorf("type %q already registered", t.Name)
	}

	for _, parent := range t.Parents() {
		p, ok := c.types[parent]
		if !ok {
			return fmt.Errorf("type %q extends unknown type %q", t.Name, parent)
		}
		if parent == t.VariantOf && p.Source.Family != t.Family {
			return fmt.Errorf("variant %q has family %q but %q has family %q",
				t.Name, t.Family, parent, p.Source.Family)
		}
	}

	c.types[t.Name] = Derived{
		Source:    t,
		Fields:    c.layout(t),
		Ancestors: c.ancestors(t),
	}
	c.order = append(c.order, t.Name)
	return nil
}

// AddAll registers types in order, stopping at the first error.
func (c *Catalog) AddAll(types []schema.Type) error {
	for _, t := range types {
		if err := c.Add(t); err != nil {
			return err
		}
	}
	return nil
}

// layout flattens parents' fields in declared order, then own fields.
// A redeclared field replaces the earlier definition in place.
func (c *Catalog) layout(t schema.Type) []schema.Field {
	var fields []schema.Field
	index := make(map[string]int)

	put := func(f schema.Field) {
		if i, ok := index[f.Name]; ok {
			fields[i] = f
			return
		}
		index[f.Name] = len(fields)
		fields = append(fields, f)
	}

	for _, parent := range t.Parents() {
		for _, f := range c.types[parent].Fields {
			if _, ok := index[f.Name]; ok {
				continue
			}
			put(f)
		}
	}
	for _, f := range t.Fields {
		put(f)
	}
	return fields
}

func (c *Catalog) ancestors(t schema.Type) []string {
	var out []string
	seen := map[string]bool{t.Name: true}
	queue := t.Parents()
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
		queue = append(queue, c.types[name].Source.Parents()...)
	}
	return out
}

// Get returns the type definition.
func (c *Catalog) Get(name string) (schema.Type, bool) {
	d, ok := c.Derive(name)
	return d.Source, ok
}

// Derive returns the derived form of a type.
func (c *Catalog) Derive(name string) (Derived, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.types[name]
	return d, ok
}

// Ancestors returns the ancestors of a type, nearest first.
// Unknown types have none.
func (c *Catalog) Ancestors(name string) []string {
	d, _ := c.Derive(name)
	out := make([]string, len(d.Ancestors))
	copy(out, d.Ancestors)
	return out
}

// Extends reports whether ancestor is name itself or one of its ancestors.
func (c *Catalog) Extends(name, ancestor string) bool {
	if name == ancestor {
		return true
	}
	for _, a := range c.Ancestors(name) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Names returns all type names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// ByFamily returns the names of types in a family, in registration order.
func (c *Catalog) ByFamily(f schema.Family) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, name := range c.order {
		if c.types[name].Source.Family == f {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Check verifies that every object field points at a registered type.
// Call it once all types are loaded.
func (c *Catalog) Check() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []string
	for _, name := range c.order {
		for _, f := range c.types[name].Source.Fields {
			if f.Type != schema.FieldTypeObject {
				continue
			}
			if _, ok := c.types[f.To]; !ok {
				errs = append(errs, fmt.Sprintf("%s.%s: unknown object type %q", name, f.Name, f.To))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
