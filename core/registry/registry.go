// Package registry maps canonical types to their backend variants and
// back. It is safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Entry is one (canonical, backend, variant) registration.
type Entry struct {
	Canonical string `json:"canonical" yaml:"canonical"`
	Backend   string `json:"backend" yaml:"backend"`
	Variant   string `json:"variant" yaml:"variant"`
}

// Populator registers entries into a registry. It runs at most once and
// must only call Register.
type Populator func(r *Registry) error

// Option configures a Registry.
type Option func(*Registry)

// WithPopulator defers population to the first lookup.
func WithPopulator(p Populator) Option {
	return func(r *Registry) { r.populate = p }
}

// WithLogger sets the logger used to report population.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

type backendVariant struct {
	backend string
	variant string
}

// Registry holds the forward map (canonical, backend) -> variant and the
// inverse map variant -> canonical.
type Registry struct {
	mu sync.RWMutex

	// canonical type -> variants in registration order
	variants map[string][]backendVariant

	// canonical types in first-registration order
	order []string

	// variant type -> registration
	inverse map[string]Entry

	once        sync.Once
	populate    Populator
	populateErr error
	warnOnce    sync.Once

	logger zerolog.Logger
}

// New creates a registry. Without WithPopulator it starts empty.
func New(opts ...Option) *Registry {
	r := &Registry{
		variants: make(map[string][]backendVariant),
		inverse:  make(map[string]Entry),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register maps (canonical, backend) to variant and variant to canonical.
// Registering the same (canonical, backend) again replaces the variant and
// keeps the backend's position.
func (r *Registry) Register(backend, canonical, variant string) error {
	if backend == "" || canonical == "" || variant == "" {
		return fmt.Errorf("register %q/%q/%q: backend, canonical and variant are required",
			backend, canonical, variant)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.variants[canonical]
	replaced := false
	for i, e := range entries {
		if e.backend == backend {
			entries[i].variant = variant
			replaced = true
			break
		}
	}
	if !replaced {
		if len(entries) == 0 {
			r.order = append(r.order, canonical)
		}
		r.variants[canonical] = append(entries, backendVariant{backend: backend, variant: variant})
	}
	r.inverse[variant] = Entry{Canonical: canonical, Backend: backend, Variant: variant}
	return nil
}

// Ensure runs the populator once and returns its error, if any.
// Concurrent callers block until population completes.
func (r *Registry) Ensure() error {
	r.once.Do(func() {
		if r.populate == nil {
			return
		}
		if err := r.populate(r); err != nil {
			r.populateErr = fmt.Errorf("populate registry: %w", err)
			r.logger.Error().Err(err).Msg("registry population failed")
			return
		}
		r.logger.Info().Int("entries", r.count()).Msg("registry populated")
	})
	return r.populateErr
}

// ready populates the registry for a lookup. Lookups cannot return the
// population error, so the first one after a failure logs it; callers
// that need the error use Ensure or RequireEntries.
func (r *Registry) ready() {
	if err := r.Ensure(); err != nil {
		r.warnOnce.Do(func() {
			r.logger.Warn().Err(err).Msg("registry lookup after failed population; reporting no variants")
		})
	}
}

// LookupVariant returns the variant registered for (canonical, backend).
func (r *Registry) LookupVariant(canonical, backend string) (string, bool) {
	r.ready()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.variants[canonical] {
		if e.backend == backend {
			return e.variant, true
		}
	}
	return "", false
}

// LookupCanonical returns the canonical type a variant belongs to.
func (r *Registry) LookupCanonical(variant string) (string, bool) {
	e, ok := r.LookupEntry(variant)
	return e.Canonical, ok
}

// LookupEntry returns the registration of a variant.
func (r *Registry) LookupEntry(variant string) (Entry, bool) {
	r.ready()

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.inverse[variant]
	return e, ok
}

// Backends returns the backends registered for canonical, in
// registration order.
func (r *Registry) Backends(canonical string) []string {
	r.ready()

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.variants[canonical]
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.backend
	}
	return out
}

// IsCanonical reports whether typeName has at least one registered variant.
func (r *Registry) IsCanonical(typeName string) bool {
	r.ready()

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.variants[typeName]) > 0
}

// Entries returns every registration, grouped by canonical type in the
// order canonical types were first registered.
func (r *Registry) Entries() []Entry {
	r.ready()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, canonical := range r.order {
		for _, e := range r.variants[canonical] {
			out = append(out, Entry{Canonical: canonical, Backend: e.backend, Variant: e.variant})
		}
	}
	return out
}

func (r *Registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, entries := range r.variants {
		n += len(entries)
	}
	return n
}

// ErrEmpty is returned by RequireEntries for an empty registry.
var ErrEmpty = errors.New("registry has no entries")

// RequireEntries ensures population and fails if nothing was registered.
func (r *Registry) RequireEntries() error {
	if err := r.Ensure(); err != nil {
		return err
	}
	if r.count() == 0 {
		return ErrEmpty
	}
	return nil
}
