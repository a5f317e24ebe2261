// Package backend defines plugin-like backend modules. A module owns the
// variant types of one chat backend and registers them at startup.
package backend

import (
	"fmt"

	"github.com/Point72/chatom/core/catalog"
	"github.com/Point72/chatom/core/registry"
	"github.com/Point72/chatom/core/schema"
)

// Module provides the variant types of one backend.
type Module interface {
	// ID is the backend identifier (e.g. "slack").
	ID() string

	// Types returns the backend's type definitions in dependency order.
	Types() ([]schema.Type, error)
}

// Define builds a module from embedded YAML definitions. Variants that
// leave backend empty belong to id.
func Define(id string, definitions []byte) Module {
	return &defined{id: id, definitions: definitions}
}

type defined struct {
	id          string
	definitions []byte
}

func (d *defined) ID() string { return d.id }

func (d *defined) Types() ([]schema.Type, error) {
	types, err := schema.ParseForBackend(d.definitions, d.id)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", d.id, err)
	}
	for _, t := range types {
		if t.Backend != "" && t.Backend != d.id {
			return nil, fmt.Errorf("backend %s: type %s declares backend %q", d.id, t.Name, t.Backend)
		}
	}
	return types, nil
}

// Install adds every module's types to the catalog.
func Install(c *catalog.Catalog, modules ...Module) error {
	for _, m := range modules {
		types, err := m.Types()
		if err != nil {
			return err
		}
		if err := c.AddAll(types); err != nil {
			return fmt.Errorf("backend %s: %w", m.ID(), err)
		}
	}
	return nil
}

// Populator returns a registry populator that registers every variant of
// the given modules, in module order.
func Populator(modules ...Module) registry.Populator {
	return func(r *registry.Registry) error {
		for _, m := range modules {
			types, err := m.Types()
			if err != nil {
				return err
			}
			for _, t := range types {
				if !t.IsVariant() {
					continue
				}
				if err := r.Register(m.ID(), t.VariantOf, t.Name); err != nil {
					return fmt.Errorf("backend %s: %w", m.ID(), err)
				}
			}
		}
		return nil
	}
}

// IDs returns the ids of modules in order.
func IDs(modules []Module) []string {
	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID()
	}
	return ids
}
