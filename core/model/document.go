package model

import (
	"errors"

	"github.com/Point72/chatom/core/mapping"
)

// Document is the serialized form of an instance: a type name and its
// field values. It is what files, HTTP bodies and codecs carry.
type Document struct {
	Type   string           `yaml:"type" json:"type" cbor:"type"`
	Fields *mapping.Mapping `yaml:"fields" json:"fields" cbor:"-"`
}

// ErrNoType is returned for documents without a type name.
var ErrNoType = errors.New("document has no type")

// Validate checks the document envelope.
func (d Document) Validate() error {
	if d.Type == "" {
		return ErrNoType
	}
	return nil
}

// FieldMapping returns the fields, never nil.
func (d Document) FieldMapping() *mapping.Mapping {
	if d.Fields == nil {
		return mapping.New()
	}
	return d.Fields
}
