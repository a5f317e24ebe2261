package jsonapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Point72/chatom/core/schema"
)

func TestWriteResource(t *testing.T) {
	w := httptest.NewRecorder()
	r := NewResource("types", "User").
		Attr("family", "user").
		AttrIf("backend", "").
		Self("/types/User").
		Build()

	WriteResource(w, http.StatusOK, r)

	if w.Header().Get("Content-Type") != ContentType {
		t.Errorf("Content-Type = %v, want %v", w.Header().Get("Content-Type"), ContentType)
	}
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var doc struct {
		Data    Resource `json:"data"`
		JSONAPI JSONAPI  `json:"jsonapi"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if doc.Data.ID != "User" || doc.Data.Attributes["family"] != "user" {
		t.Errorf("Data = %+v", doc.Data)
	}
	if _, ok := doc.Data.Attributes["backend"]; ok {
		t.Error("empty AttrIf value should be omitted")
	}
	if doc.Data.Links == nil || doc.Data.Links.Self != "/types/User" {
		t.Errorf("Links = %+v", doc.Data.Links)
	}
	if doc.JSONAPI.Version != Version {
		t.Errorf("jsonapi.version = %q", doc.JSONAPI.Version)
	}
}

func TestWriteCollection(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCollection(w, http.StatusOK, nil)

	var doc struct {
		Data []Resource `json:"data"`
		Meta Meta       `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if doc.Data == nil || len(doc.Data) != 0 {
		t.Errorf("Data = %v, want empty array", doc.Data)
	}
	if doc.Meta["total"] != float64(0) {
		t.Errorf("meta.total = %v, want 0", doc.Meta["total"])
	}
}

func TestWriteError(t *testing.T) {
	t.Run("status from first error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, ErrNotFound("backend", "no SlackUser"), ErrBadRequest("x"))

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want 404", w.Code)
		}
		var doc Document
		if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if len(doc.Errors) != 2 || doc.Errors[0].Code != "not_found" {
			t.Errorf("Errors = %+v", doc.Errors)
		}
	})

	t.Run("no errors is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want 500", w.Code)
		}
	})

	t.Run("unparseable status is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, Error{Code: "odd"})
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want 500", w.Code)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	err := NewError(422, "missing", "Invalid Field").
		Detailf("field %s required", "id").
		ID("req-1").
		Parameter("backend").
		Meta("type", "SlackUser").
		Build()

	if err.StatusCode() != 422 {
		t.Errorf("StatusCode() = %d", err.StatusCode())
	}
	if err.Detail != "field id required" || err.ID != "req-1" {
		t.Errorf("err = %+v", err)
	}
	if err.Source == nil || err.Source.Parameter != "backend" {
		t.Errorf("Source = %+v", err.Source)
	}
	if err.Meta["type"] != "SlackUser" {
		t.Errorf("Meta = %v", err.Meta)
	}
}

func TestErrPayloadTooLarge(t *testing.T) {
	err := ErrPayloadTooLarge(1024)
	if err.StatusCode() != http.StatusRequestEntityTooLarge || err.Code != "payload_too_large" {
		t.Errorf("err = %+v", err)
	}
	if err.Detail != "request body exceeds 1024 bytes" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestErrFields(t *testing.T) {
	errs := ErrFields(schema.FieldErrors{
		{Path: "id", Kind: schema.KindMissing, Message: "field required"},
		{Path: "user.status", Kind: schema.KindEnum, Message: "must be one of: \"online\""},
	})

	if len(errs) != 2 {
		t.Fatalf("len = %d, want 2", len(errs))
	}
	if errs[0].Code != "missing" || errs[0].Source.Pointer != "/fields/id" || errs[0].StatusCode() != 422 {
		t.Errorf("errs[0] = %+v", errs[0])
	}
	if errs[1].Code != "enum" || errs[1].Source.Pointer != "/fields/user/status" {
		t.Errorf("errs[1] = %+v", errs[1])
	}
}

func TestFieldPointer(t *testing.T) {
	tests := []struct{ path, want string }{
		{"id", "/fields/id"},
		{"parent.id", "/fields/parent/id"},
		{"a/b", "/fields/a~1b"},
		{"x~y.z", "/fields/x~0y/z"},
	}
	for _, tt := range tests {
		if got := FieldPointer(tt.path); got != tt.want {
			t.Errorf("FieldPointer(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
