// Package provider constructs and dumps instances from catalog type
// descriptors.
package provider

import (
	"errors"
	"fmt"

	"github.com/Point72/chatom/core/catalog"
	"github.com/Point72/chatom/core/mapping"
	"github.com/Point72/chatom/core/model"
	"github.com/Point72/chatom/core/schema"
	"github.com/Point72/chatom/core/validation"
	"github.com/Point72/chatom/ports"
)

var (
	// ErrUnknownType is returned for type names missing from the catalog.
	ErrUnknownType = errors.New("unknown type")

	// ErrAbstractType is returned when constructing an abstract type.
	ErrAbstractType = errors.New("abstract type cannot be instantiated")
)

// Provider is the descriptor-driven schema provider.
type Provider struct {
	catalog *catalog.Catalog
}

var _ ports.SchemaProvider = (*Provider)(nil)

// New creates a provider backed by the given catalog.
func New(c *catalog.Catalog) *Provider {
	return &Provider{catalog: c}
}

// Dump returns an independent copy of every field value.
func (p *Provider) Dump(inst *model.Instance) *mapping.Mapping {
	return inst.Fields()
}

// FieldNames returns the effective field names of typeName.
func (p *Provider) FieldNames(typeName string) ([]string, error) {
	d, ok := p.catalog.Derive(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return d.FieldNames(), nil
}

// Construct builds a typeName instance from fields. Absent optional
// fields take their defaults, undeclared fields are dropped, and every
// field failure is collected into a schema.FieldErrors.
func (p *Provider) Construct(typeName string, fields *mapping.Mapping) (*model.Instance, error) {
	d, ok := p.catalog.Derive(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	if d.Source.Abstract {
		return nil, fmt.Errorf("%w: %s", ErrAbstractType, typeName)
	}

	out, errs := p.build(d, fields, "")
	if len(errs) > 0 {
		return nil, errs
	}
	return model.New(typeName, out), nil
}

func (p *Provider) build(d catalog.Derived, in *mapping.Mapping, prefix string) (*mapping.Mapping, schema.FieldErrors) {
	out := mapping.New()
	var errs schema.FieldErrors

	for _, f := range d.Fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}

		value, present := in.Get(f.Name)

		switch {
		case !present:
			if f.IsRequired() {
				errs = append(errs, missing(path))
				continue
			}
			v, err := p.defaultValue(path, f)
			if err != nil {
				errs = append(errs, *err)
				continue
			}
			out.Set(f.Name, v)
			continue

		case value == nil:
			if f.IsRequired() {
				errs = append(errs, missing(path))
			} else if f.Nullable {
				out.Set(f.Name, nil)
			} else {
				errs = append(errs, schema.FieldError{Path: path, Kind: schema.KindType, Message: "must not be null"})
			}
			continue

		case f.IsRequired() && value == "":
			errs = append(errs, missing(path))
			continue
		}

		if f.Type == schema.FieldTypeObject {
			nested, nestedErrs := p.nested(path, f, value)
			if len(nestedErrs) > 0 {
				errs = append(errs, nestedErrs...)
				continue
			}
			out.Set(f.Name, nested)
			continue
		}

		v, err := validation.Coerce(path, f, value)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		if cerrs := validation.CheckConstraints(path, f, v); len(cerrs) > 0 {
			errs = append(errs, cerrs...)
			continue
		}
		out.Set(f.Name, v)
	}

	return out, errs
}

// nested validates an object field against its target type.
func (p *Provider) nested(path string, f schema.Field, value any) (*mapping.Mapping, schema.FieldErrors) {
	var in *mapping.Mapping
	switch v := value.(type) {
	case *mapping.Mapping:
		in = v
	case map[string]any:
		in = mapping.FromMap(v)
	case *model.Instance:
		in = v.Fields()
	default:
		return nil, schema.FieldErrors{{
			Path: path, Kind: schema.KindType, Value: value,
			Message: fmt.Sprintf("must be a %s object", f.To),
		}}
	}

	d, ok := p.catalog.Derive(f.To)
	if !ok {
		return nil, schema.FieldErrors{{
			Path: path, Kind: schema.KindType,
			Message: fmt.Sprintf("unknown object type %q", f.To),
		}}
	}
	return p.build(d, in, path)
}

func (p *Provider) defaultValue(path string, f schema.Field) (any, *schema.FieldError) {
	if f.Default == nil {
		return nil, nil
	}
	return validation.Coerce(path, f, mapping.CloneValue(f.Default))
}

func missing(path string) schema.FieldError {
	return schema.FieldError{Path: path, Kind: schema.KindMissing, Message: "field required"}
}
