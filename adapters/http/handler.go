package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Point72/chatom/app"
	"github.com/Point72/chatom/core/conversion"
	"github.com/Point72/chatom/core/model"
	"github.com/Point72/chatom/core/provider"
	"github.com/Point72/chatom/core/schema"
	"github.com/Point72/chatom/pkg/codec"
	"github.com/Point72/chatom/pkg/jsonapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the conversion endpoints.
type Handler struct {
	convert *app.ConvertService
	types   *app.TypeService
	logger  zerolog.Logger
	version string
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Version reports the service version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"service": "chatom", "version": h.version})
}

// ListTypes returns every catalog type as a JSON:API collection.
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	list, err := h.types.List()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resources := make([]jsonapi.Resource, len(list))
	for i, info := range list {
		resources[i] = typeResource(info)
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources)
}

// GetType returns one catalog type.
func (h *Handler) GetType(w http.ResponseWriter, r *http.Request) {
	info, err := h.types.Get(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, typeResource(info))
}

// TypeBackends lists the backends a type can be promoted to.
func (h *Handler) TypeBackends(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	backends, err := h.types.Backends(name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, jsonapi.NewResource("type-backends", name).
		Attr("backends", backends).
		Related("/types/"+name).
		Build())
}

func typeResource(info app.TypeInfo) jsonapi.Resource {
	b := jsonapi.NewResource("types", info.Name).
		Attr("family", info.Family).
		AttrIf("backend", info.Backend).
		AttrIf("variant_of", info.VariantOf).
		Attr("abstract", info.Abstract).
		Attr("fields", info.Fields).
		Self("/types/" + info.Name)
	if len(info.Ancestors) > 0 {
		b.Attr("ancestors", info.Ancestors)
	}
	if len(info.Backends) > 0 {
		b.Attr("backends", info.Backends)
	}
	return b.Build()
}

// Validate reports whether the posted document could be promoted.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	data, in, ok := h.readBody(w, r)
	if !ok {
		return
	}
	doc, err := codec.UnmarshalDocument(data, in)
	if err != nil {
		h.writeDecodeError(w, r, err)
		return
	}
	result, err := h.convert.Validate(doc, chi.URLParam(r, "backend"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, r, result)
}

// Promote converts the posted document to a backend variant. An
// optional top-level "extra" mapping supplies backend-only fields.
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	data, in, ok := h.readBody(w, r)
	if !ok {
		return
	}
	doc, err := codec.UnmarshalDocument(data, in)
	if err != nil {
		h.writeDecodeError(w, r, err)
		return
	}
	extra, err := codec.UnmarshalExtra(data, in)
	if err != nil {
		h.writeDecodeError(w, r, err)
		return
	}
	out, err := h.convert.Promote(doc, chi.URLParam(r, "backend"), extra)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, r, out)
}

// Demote converts the posted document to its canonical type.
func (h *Handler) Demote(w http.ResponseWriter, r *http.Request) {
	data, in, ok := h.readBody(w, r)
	if !ok {
		return
	}
	doc, err := codec.UnmarshalDocument(data, in)
	if err != nil {
		h.writeDecodeError(w, r, err)
		return
	}
	out, err := h.convert.Demote(doc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, r, out)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, codec.Format, bool) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !supportedContentType(ct) {
		fail(w, r, jsonapi.ErrUnsupportedMediaType(ct))
		return nil, "", false
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fail(w, r, jsonapi.ErrPayloadTooLarge(tooLarge.Limit))
		return nil, "", false
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read request body")
		fail(w, r, jsonapi.ErrBadRequest("failed to read request body"))
		return nil, "", false
	}
	return data, codec.FormatFromContentType(ct), true
}

func supportedContentType(ct string) bool {
	for _, s := range []string{"json", "yaml", "cbor"} {
		if strings.Contains(ct, s) {
			return true
		}
	}
	return false
}

// write encodes v in the format named by the Accept header, JSON by
// default.
func (h *Handler) write(w http.ResponseWriter, r *http.Request, v any) {
	out := codec.FormatFromContentType(r.Header.Get("Accept"))
	data, err := codec.Marshal(out, v)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("encode response: %w", err))
		return
	}
	w.Header().Set("Content-Type", out.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	fail(w, r, jsonapi.ErrBadRequest(err.Error()))
}

// writeError maps engine errors to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		bnf  *conversion.BackendNotFoundError
		conv *conversion.ConversionError
		fes  schema.FieldErrors
	)

	switch {
	case errors.As(err, &bnf):
		fail(w, r, jsonapi.NewError(http.StatusNotFound, "backend_not_found", "Not Found").
			Detail(bnf.Error()).
			Parameter("backend").
			Meta("canonical", bnf.Canonical).
			Build())

	case errors.As(err, &conv):
		if len(conv.Errors) > 0 {
			fail(w, r, jsonapi.ErrFields(conv.Errors)...)
			return
		}
		fail(w, r, jsonapi.ErrUnprocessable("conversion_failed", conv.Error()))

	case errors.As(err, &fes):
		fail(w, r, jsonapi.ErrFields(fes)...)

	case errors.Is(err, provider.ErrUnknownType):
		fail(w, r, jsonapi.ErrNotFound("type", err.Error()))

	case errors.Is(err, provider.ErrAbstractType):
		fail(w, r, jsonapi.ErrUnprocessable("abstract_type", err.Error()))

	case errors.Is(err, model.ErrNoType):
		fail(w, r, jsonapi.ErrBadRequest(err.Error()))

	default:
		h.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("request failed")
		fail(w, r, jsonapi.ErrInternal(err.Error()))
	}
}

// fail writes errs tagged with the request ID.
func fail(w http.ResponseWriter, r *http.Request, errs ...jsonapi.Error) {
	id := middleware.GetReqID(r.Context())
	for i := range errs {
		errs[i].ID = id
	}
	jsonapi.WriteError(w, errs...)
}
