// Package app provides application services that orchestrate domain logic.
package app

import (
	"fmt"

	"github.com/Point72/chatom/core/conversion"
	"github.com/Point72/chatom/core/model"
	"github.com/Point72/chatom/ports"
	"github.com/rs/zerolog"
)

// ConvertService runs the conversion engine on serialized documents.
type ConvertService struct {
	converter *conversion.Converter
	provider  ports.SchemaProvider
	logger    zerolog.Logger
}

// NewConvertService creates a conversion service.
func NewConvertService(converter *conversion.Converter, provider ports.SchemaProvider, logger zerolog.Logger) *ConvertService {
	return &ConvertService{
		converter: converter,
		provider:  provider,
		logger:    logger,
	}
}

// Load builds an instance of the document's own type.
func (s *ConvertService) Load(doc model.Document) (*model.Instance, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	inst, err := s.provider.Construct(doc.Type, doc.FieldMapping())
	if err != nil {
		return nil, fmt.Errorf("load %s document: %w", doc.Type, err)
	}
	return inst, nil
}

// Validate reports whether the document could be promoted to backend.
func (s *ConvertService) Validate(doc model.Document, backend string) (conversion.ValidationResult, error) {
	inst, err := s.Load(doc)
	if err != nil {
		return conversion.ValidationResult{}, err
	}
	return s.converter.ValidateForBackend(inst, backend)
}

// Promote converts the document to the backend variant of its type.
// Extra values win over the document's own fields.
func (s *ConvertService) Promote(doc model.Document, backend string, extra map[string]any) (model.Document, error) {
	inst, err := s.Load(doc)
	if err != nil {
		return model.Document{}, err
	}
	out, err := s.converter.Promote(inst, backend, extra)
	if err != nil {
		return model.Document{}, err
	}
	s.logger.Debug().
		Str("type", doc.Type).
		Str("backend", backend).
		Str("target", out.TypeName()).
		Msg("document promoted")
	return out.Document(), nil
}

// Demote converts the document to its canonical base type.
func (s *ConvertService) Demote(doc model.Document) (model.Document, error) {
	inst, err := s.Load(doc)
	if err != nil {
		return model.Document{}, err
	}
	out, err := s.converter.Demote(inst)
	if err != nil {
		return model.Document{}, err
	}
	s.logger.Debug().
		Str("type", doc.Type).
		Str("target", out.TypeName()).
		Msg("document demoted")
	return out.Document(), nil
}
