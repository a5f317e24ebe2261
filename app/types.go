package app

import (
	"fmt"

	"github.com/Point72/chatom/core/catalog"
	"github.com/Point72/chatom/core/provider"
	"github.com/Point72/chatom/core/registry"
	"github.com/Point72/chatom/core/schema"
)

// TypeInfo describes one catalog type for listings.
type TypeInfo struct {
	Name      string        `json:"name" yaml:"name"`
	Family    schema.Family `json:"family" yaml:"family"`
	Backend   string        `json:"backend,omitempty" yaml:"backend,omitempty"`
	VariantOf string        `json:"variant_of,omitempty" yaml:"variant_of,omitempty"`
	Abstract  bool          `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Ancestors []string      `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`
	Fields    []string      `json:"fields" yaml:"fields"`
	Backends  []string      `json:"backends,omitempty" yaml:"backends,omitempty"`
}

// TypeService answers questions about the catalog and the registry.
type TypeService struct {
	catalog  *catalog.Catalog
	registry *registry.Registry
}

// NewTypeService creates a type service.
func NewTypeService(c *catalog.Catalog, r *registry.Registry) *TypeService {
	return &TypeService{catalog: c, registry: r}
}

// List returns every type in catalog order.
func (s *TypeService) List() ([]TypeInfo, error) {
	if err := s.registry.Ensure(); err != nil {
		return nil, err
	}
	names := s.catalog.Names()
	out := make([]TypeInfo, 0, len(names))
	for _, name := range names {
		info, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Get describes a single type.
func (s *TypeService) Get(name string) (TypeInfo, error) {
	d, ok := s.catalog.Derive(name)
	if !ok {
		return TypeInfo{}, fmt.Errorf("%w: %s", provider.ErrUnknownType, name)
	}
	if err := s.registry.Ensure(); err != nil {
		return TypeInfo{}, err
	}
	return TypeInfo{
		Name:      name,
		Family:    d.Source.Family,
		Backend:   d.Source.Backend,
		VariantOf: d.Source.VariantOf,
		Abstract:  d.Source.Abstract,
		Ancestors: s.catalog.Ancestors(name),
		Fields:    d.FieldNames(),
		Backends:  s.registry.Backends(name),
	}, nil
}

// Backends lists the backends a type can be promoted to, in
// registration order. Only canonical types have any.
func (s *TypeService) Backends(name string) ([]string, error) {
	info, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if info.Backends == nil {
		return []string{}, nil
	}
	return info.Backends, nil
}

// Entries returns every registry entry. An empty registry is an error.
func (s *TypeService) Entries() ([]registry.Entry, error) {
	if err := s.registry.RequireEntries(); err != nil {
		return nil, err
	}
	return s.registry.Entries(), nil
}
