// Package conversion validates, promotes and demotes chat entity
// instances between canonical types and backend variants.
//
// Promotion turns a canonical instance into a backend variant by dumping
// its fields, merging caller-supplied extras and constructing the
// variant. Demotion does the reverse, keeping only the canonical type's
// fields. Fields never flow between two backends implicitly.
package conversion

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Point72/chatom/adapters/clock"
	"github.com/Point72/chatom/core/mapping"
	"github.com/Point72/chatom/core/model"
	"github.com/Point72/chatom/core/registry"
	"github.com/Point72/chatom/core/resolver"
	"github.com/Point72/chatom/core/schema"
	"github.com/Point72/chatom/ports"
)

// Converter is the promotion/demotion engine. It is safe for concurrent
// use and never mutates its inputs.
type Converter struct {
	registry *registry.Registry
	lineage  resolver.Lineage
	resolver *resolver.Resolver
	provider ports.SchemaProvider

	observer ports.ConversionObserver
	clock    ports.Clock
	logger   zerolog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithObserver reports every operation to o.
func WithObserver(o ports.ConversionObserver) Option {
	return func(c *Converter) { c.observer = o }
}

// WithClock sets the clock used to time operations.
func WithClock(clk ports.Clock) Option {
	return func(c *Converter) { c.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// New creates a converter.
func New(reg *registry.Registry, lineage resolver.Lineage, provider ports.SchemaProvider, opts ...Option) *Converter {
	c := &Converter{
		registry: reg,
		lineage:  lineage,
		resolver: resolver.New(lineage, reg),
		provider: provider,
		observer: ports.NopObserver{},
		clock:    clock.Real{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the nearest registered canonical ancestor of typeName.
func (c *Converter) Resolve(typeName string) string {
	return c.resolver.ResolveRegisteredAncestor(typeName)
}

// ValidateForBackend reports whether inst could be promoted to backend.
// Only an unknown backend (or a broken registry) is returned as an error;
// every field problem is reported in the result.
func (c *Converter) ValidateForBackend(inst *model.Instance, backend string) (ValidationResult, error) {
	start := c.clock.Now()

	if err := c.registry.Ensure(); err != nil {
		c.done(ports.OpValidate, backend, start, err)
		return ValidationResult{}, err
	}

	canonical := c.resolver.ResolveRegisteredAncestor(inst.TypeName())
	variant, ok := c.registry.LookupVariant(canonical, backend)
	if !ok {
		err := &BackendNotFoundError{Op: ports.OpValidate, Canonical: canonical, Backend: backend}
		c.done(ports.OpValidate, backend, start, err)
		return ValidationResult{}, err
	}

	data := c.provider.Dump(inst)
	result := NewValidationResult()

	if _, err := c.provider.Construct(variant, data); err != nil {
		var fieldErrs schema.FieldErrors
		if !errors.As(err, &fieldErrs) {
			err = &ConversionError{Op: ports.OpValidate, Source: inst.TypeName(), Target: variant, Err: err}
			c.done(ports.OpValidate, backend, start, err)
			return ValidationResult{}, err
		}
		for _, fe := range fieldErrs {
			classify(&result, fe)
		}
	}

	declared, err := c.provider.FieldNames(variant)
	if err != nil {
		err = &ConversionError{Op: ports.OpValidate, Source: inst.TypeName(), Target: variant, Err: err}
		c.done(ports.OpValidate, backend, start, err)
		return ValidationResult{}, err
	}
	known := make(map[string]bool, len(declared))
	for _, name := range declared {
		known[name] = true
	}
	for _, key := range data.Keys() {
		if !known[key] {
			result.AddWarning(fmt.Sprintf("field %q is not defined on %s and would be dropped", key, variant))
		}
	}

	c.logger.Debug().
		Str("type", inst.TypeName()).
		Str("backend", backend).
		Str("target", variant).
		Bool("valid", result.Valid).
		Msg("validated for backend")

	outcome := ports.OutcomeOK
	if !result.Valid {
		outcome = ports.OutcomeInvalid
	}
	c.observer.ObserveConversion(ports.OpValidate, backend, outcome, c.clock.Now().Sub(start))
	return result, nil
}

// classify sorts a field error into the result by its kind.
func classify(result *ValidationResult, fe schema.FieldError) {
	switch fe.Kind {
	case schema.KindMissing:
		result.AddMissing(fe.Path)
	case schema.KindType, schema.KindEnum, schema.KindConstraint:
		result.AddInvalid(fe.Path, fe.Message)
	default:
		result.AddInvalid(fe.Path, fe.Message)
	}
}

// CanPromote reports ValidateForBackend(inst, backend).Valid.
func (c *Converter) CanPromote(inst *model.Instance, backend string) (bool, error) {
	result, err := c.ValidateForBackend(inst, backend)
	if err != nil {
		return false, err
	}
	return result.Valid, nil
}

// Promote converts inst into the variant registered for backend. Values
// in extra are applied on top of the instance's fields.
func (c *Converter) Promote(inst *model.Instance, backend string, extra map[string]any) (*model.Instance, error) {
	start := c.clock.Now()

	if err := c.registry.Ensure(); err != nil {
		c.done(ports.OpPromote, backend, start, err)
		return nil, err
	}

	source := inst.TypeName()
	if canonical, ok := c.registry.LookupCanonical(source); ok {
		source = canonical
	}
	canonical := c.resolver.ResolveRegisteredAncestor(source)

	variant, ok := c.registry.LookupVariant(canonical, backend)
	if !ok {
		err := &BackendNotFoundError{Op: ports.OpPromote, Canonical: canonical, Backend: backend}
		c.done(ports.OpPromote, backend, start, err)
		return nil, err
	}

	data := c.provider.Dump(inst)
	if len(extra) > 0 {
		data = data.Merge(mapping.FromMap(extra))
	}

	out, err := c.provider.Construct(variant, data)
	if err != nil {
		err = constructError(ports.OpPromote, inst.TypeName(), variant, err)
		c.done(ports.OpPromote, backend, start, err)
		return nil, err
	}

	c.logger.Debug().
		Str("type", inst.TypeName()).
		Str("backend", backend).
		Str("target", variant).
		Msg("promoted")
	c.done(ports.OpPromote, backend, start, nil)
	return out, nil
}

// Demote converts a backend variant back to its canonical type, keeping
// only the fields the canonical type declares. Canonical instances are
// returned as independent copies.
func (c *Converter) Demote(inst *model.Instance) (*model.Instance, error) {
	start := c.clock.Now()
	typeName := inst.TypeName()

	if err := c.registry.Ensure(); err != nil {
		c.done(ports.OpDemote, "", start, err)
		return nil, err
	}

	entry, ok := c.registry.LookupEntry(typeName)
	if !ok {
		if c.registry.IsCanonical(typeName) {
			c.done(ports.OpDemote, "", start, nil)
			return inst.Copy(), nil
		}

		found := false
		for _, ancestor := range c.lineage.Ancestors(typeName) {
			if e, ok := c.registry.LookupEntry(ancestor); ok {
				entry, found = e, true
				break
			}
			if c.registry.IsCanonical(ancestor) {
				c.done(ports.OpDemote, "", start, nil)
				return inst.Copy(), nil
			}
		}
		if !found {
			err := &ConversionError{Op: ports.OpDemote, Source: typeName}
			c.done(ports.OpDemote, "", start, err)
			return nil, err
		}
	}

	target := entry.Canonical
	names, err := c.provider.FieldNames(target)
	if err != nil {
		err = &ConversionError{Op: ports.OpDemote, Source: typeName, Target: target, Err: err}
		c.done(ports.OpDemote, entry.Backend, start, err)
		return nil, err
	}

	out, err := c.provider.Construct(target, c.provider.Dump(inst).Filter(names))
	if err != nil {
		err = constructError(ports.OpDemote, typeName, target, err)
		c.done(ports.OpDemote, entry.Backend, start, err)
		return nil, err
	}

	c.logger.Debug().
		Str("type", typeName).
		Str("backend", entry.Backend).
		Str("target", target).
		Msg("demoted")
	c.done(ports.OpDemote, entry.Backend, start, nil)
	return out, nil
}

func constructError(op, source, target string, err error) *ConversionError {
	ce := &ConversionError{Op: op, Source: source, Target: target, Err: err}
	var fieldErrs schema.FieldErrors
	if errors.As(err, &fieldErrs) {
		ce.Errors = fieldErrs
	}
	return ce
}

// done logs failures and reports the operation to the observer.
func (c *Converter) done(op, backend string, start time.Time, err error) {
	outcome := ports.OutcomeOK
	if err != nil {
		var notFound *BackendNotFoundError
		if errors.As(err, &notFound) {
			outcome = ports.OutcomeBackendNotFound
		} else {
			outcome = ports.OutcomeError
		}
		c.logger.Debug().Err(err).Str("op", op).Str("backend", backend).Msg("conversion failed")
	}
	c.observer.ObserveConversion(op, backend, outcome, c.clock.Now().Sub(start))
}
