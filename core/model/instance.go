// Package model defines typed chat entity instances.
package model

import (
	"time"

	"github.com/Point72/chatom/core/mapping"
)

// Instance is a value of a named type. Instances are built by a schema
// provider and are never modified by conversion; every conversion returns
// a new Instance.
type Instance struct {
	typ    string
	fields *mapping.Mapping
}

// New wraps fields as an instance of typeName. Callers should obtain
// instances from a provider, which validates and completes the fields.
func New(typeName string, fields *mapping.Mapping) *Instance {
	if fields == nil {
		fields = mapping.New()
	}
	return &Instance{typ: typeName, fields: fields}
}

// TypeName returns the runtime type name.
func (i *Instance) TypeName() string { return i.typ }

// Fields returns a deep copy of the field values.
func (i *Instance) Fields() *mapping.Mapping { return i.fields.Clone() }

// Get returns a field value.
func (i *Instance) Get(name string) (any, bool) { return i.fields.Get(name) }

// String returns a string field, or "" when absent or not a string.
func (i *Instance) String(name string) string {
	v, _ := i.fields.Get(name)
	s, _ := v.(string)
	return s
}

// Bool returns a bool field, or false.
func (i *Instance) Bool(name string) bool {
	v, _ := i.fields.Get(name)
	b, _ := v.(bool)
	return b
}

// Int returns an int field and whether it was set (non-null).
func (i *Instance) Int(name string) (int, bool) {
	v, _ := i.fields.Get(name)
	n, ok := v.(int)
	return n, ok
}

// Time returns a timestamp field and whether it was set.
func (i *Instance) Time(name string) (time.Time, bool) {
	v, _ := i.fields.Get(name)
	t, ok := v.(time.Time)
	return t, ok
}

// Strings returns a list-of-strings field.
func (i *Instance) Strings(name string) []string {
	v, _ := i.fields.Get(name)
	switch s := v.(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out
	default:
		return nil
	}
}

// Nested returns a nested object field as a mapping copy.
func (i *Instance) Nested(name string) (*mapping.Mapping, bool) {
	v, _ := i.fields.Get(name)
	m, ok := v.(*mapping.Mapping)
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Copy returns an independent instance with equal fields.
func (i *Instance) Copy() *Instance {
	return &Instance{typ: i.typ, fields: i.fields.Clone()}
}

// Equal reports whether both instances have the same type and fields.
func (i *Instance) Equal(other *Instance) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.typ == other.typ && i.fields.Equal(other.fields)
}

// Document returns the wire form of the instance.
func (i *Instance) Document() Document {
	return Document{Type: i.typ, Fields: i.fields.Clone()}
}
