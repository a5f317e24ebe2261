package conversion

import (
	"errors"
	"fmt"

	"github.com/Point72/chatom/core/schema"
)

// ErrConversion matches every conversion failure with errors.Is.
var ErrConversion = errors.New("conversion failed")

// ConversionError reports a promotion or demotion that could not be
// performed.
type ConversionError struct {
	// Op is the failed operation (promote, demote, validate).
	Op string

	// Source is the runtime type of the input instance.
	Source string

	// Target is the type that could not be constructed. Empty when no
	// target could be determined.
	Target string

	// Errors holds the field-level failures, if construction failed.
	Errors schema.FieldErrors

	// Err is the underlying cause.
	Err error
}

func (e *ConversionError) Error() string {
	switch {
	case e.Target == "" && e.Err != nil:
		return e.Err.Error()
	case e.Target == "":
		return fmt.Sprintf("%s is not a registered backend type", e.Source)
	case e.Err != nil:
		return fmt.Sprintf("failed to %s %s to %s: %v", e.Op, e.Source, e.Target, e.Err)
	default:
		return fmt.Sprintf("failed to %s %s to %s", e.Op, e.Source, e.Target)
	}
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Is matches ErrConversion.
func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// BackendNotFoundError reports that no variant of Canonical is registered
// for Backend. It is a kind of ConversionError: errors.Is(err,
// ErrConversion) holds and errors.As yields a *ConversionError.
type BackendNotFoundError struct {
	// Op is the operation that looked the backend up (promote, validate).
	Op        string
	Canonical string
	Backend   string
}

func (e *BackendNotFoundError) Error() string {
	return fmt.Sprintf("no %s type registered for %s", e.Backend, e.Canonical)
}

// Is matches ErrConversion.
func (e *BackendNotFoundError) Is(target error) bool { return target == ErrConversion }

// As converts to *ConversionError.
func (e *BackendNotFoundError) As(target any) bool {
	ce, ok := target.(**ConversionError)
	if !ok {
		return false
	}
	*ce = &ConversionError{Op: e.Op, Source: e.Canonical, Err: e}
	return true
}
