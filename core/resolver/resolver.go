// Package resolver finds the nearest registered canonical type in a
// type's ancestor chain.
package resolver

// Lineage reports declared ancestors of a type, nearest first.
type Lineage interface {
	Ancestors(typeName string) []string
}

// Canonicals reports whether a type is a registered canonical type.
type Canonicals interface {
	IsCanonical(typeName string) bool
}

// Resolver bridges the type catalog (lineage) with the registry.
//
// Usage:
//
//	res := resolver.New(catalog, registry)
//	res.ResolveRegisteredAncestor("BotUser") // "User"
type Resolver struct {
	lineage    Lineage
	canonicals Canonicals
}

// New creates a resolver.
func New(lineage Lineage, canonicals Canonicals) *Resolver {
	return &Resolver{lineage: lineage, canonicals: canonicals}
}

// Chain returns typeName followed by its ancestors in resolution order.
func (r *Resolver) Chain(typeName string) []string {
	return append([]string{typeName}, r.lineage.Ancestors(typeName)...)
}

// ResolveRegisteredAncestor returns the first type in the chain that is a
// registered canonical type, or typeName itself when there is none.
func (r *Resolver) ResolveRegisteredAncestor(typeName string) string {
	for _, name := range r.Chain(typeName) {
		if r.canonicals.IsCanonical(name) {
			return name
		}
	}
	return typeName
}
