package jsonapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Point72/chatom/core/schema"
)

// ErrorBuilder provides a fluent API for building Error objects.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new ErrorBuilder with the given status, code, and title.
func NewError(status int, code, title string) *ErrorBuilder {
	return &ErrorBuilder{
		err: Error{
			Status: strconv.Itoa(status),
			Code:   code,
			Title:  title,
		},
	}
}

// Detail sets the error detail message.
func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

// Detailf sets the error detail message with formatting.
func (b *ErrorBuilder) Detailf(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// ID sets the error ID.
func (b *ErrorBuilder) ID(id string) *ErrorBuilder {
	b.err.ID = id
	return b
}

// Pointer sets the JSON pointer to the source of the error.
// Example: "/fields/user/id"
func (b *ErrorBuilder) Pointer(pointer string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Pointer = pointer
	return b
}

// Parameter sets the parameter that caused the error.
func (b *ErrorBuilder) Parameter(param string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Parameter = param
	return b
}

// Meta adds metadata to the error.
func (b *ErrorBuilder) Meta(key string, value any) *ErrorBuilder {
	if b.err.Meta == nil {
		b.err.Meta = make(Meta)
	}
	b.err.Meta[key] = value
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() Error {
	return b.err
}

// StatusCode returns the HTTP status code as an int.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// ErrBadRequest creates a 400 Bad Request error.
func ErrBadRequest(detail string) Error {
	return NewError(400, "bad_request", "Bad Request").Detail(detail).Build()
}

// ErrNotFound creates a 404 Not Found error.
func ErrNotFound(resourceType, detail string) Error {
	return NewError(404, "not_found", "Not Found").
		Detail(detail).
		Meta("resource_type", resourceType).
		Build()
}

// ErrUnsupportedMediaType creates a 415 error.
func ErrUnsupportedMediaType(contentType string) Error {
	return NewError(415, "unsupported_media_type", "Unsupported Media Type").
		Detailf("content type %q is not supported", contentType).
		Build()
}

// ErrPayloadTooLarge creates a 413 error.
func ErrPayloadTooLarge(limit int64) Error {
	return NewError(413, "payload_too_large", "Payload Too Large").
		Detailf("request body exceeds %d bytes", limit).
		Build()
}

// ErrUnprocessable creates a 422 error without a field source.
func ErrUnprocessable(code, detail string) Error {
	return NewError(422, code, "Unprocessable Entity").Detail(detail).Build()
}

// ErrInternal creates a 500 Internal Server Error.
func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return NewError(500, "internal_error", "Internal Server Error").Detail(detail).Build()
}

// ErrFields converts field errors to 422 errors, one per field, with a
// pointer into the document's fields and the error kind as code.
func ErrFields(errs schema.FieldErrors) []Error {
	out := make([]Error, 0, len(errs))
	for _, fe := range errs {
		out = append(out, NewError(422, fe.Kind.String(), "Invalid Field").
			Detail(fe.Message).
			Pointer(FieldPointer(fe.Path)).
			Build())
	}
	return out
}

// FieldPointer converts a dotted field path to a JSON pointer below
// /fields, escaping "~" and "/" per RFC 6901.
func FieldPointer(path string) string {
	parts := strings.Split(path, ".")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~", "~0")
		parts[i] = strings.ReplaceAll(p, "/", "~1")
	}
	return "/fields/" + strings.Join(parts, "/")
}
