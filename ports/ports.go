// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/ and core/provider.
package ports

import (
	"time"

	"github.com/Point72/chatom/core/mapping"
	"github.com/Point72/chatom/core/model"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Schema Ports
// -----------------------------------------------------------------------------

// SchemaProvider dumps and constructs instances of named types.
type SchemaProvider interface {
	// Dump returns every field value of inst as an independent mapping.
	Dump(inst *model.Instance) *mapping.Mapping

	// Construct validates fields against typeName and returns a new
	// instance. Field-level failures are returned as schema.FieldErrors.
	// Fields not declared by the type are dropped.
	Construct(typeName string, fields *mapping.Mapping) (*model.Instance, error)

	// FieldNames returns the declared field names of typeName in order.
	FieldNames(typeName string) ([]string, error)
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Conversion operation names reported to a ConversionObserver.
const (
	OpValidate = "validate"
	OpPromote  = "promote"
	OpDemote   = "demote"
)

// Conversion outcomes reported to a ConversionObserver.
const (
	OutcomeOK              = "ok"
	OutcomeInvalid         = "invalid"
	OutcomeBackendNotFound = "backend_not_found"
	OutcomeError           = "error"
)

// ConversionObserver records conversion activity.
type ConversionObserver interface {
	ObserveConversion(op, backend, outcome string, elapsed time.Duration)
}

// NopObserver discards observations.
type NopObserver struct{}

// ObserveConversion does nothing.
func (NopObserver) ObserveConversion(string, string, string, time.Duration) {}
