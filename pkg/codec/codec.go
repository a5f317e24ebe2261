// Package codec reads and writes documents and results as YAML, JSON or
// CBOR.
//
// YAML and JSON keep field order. CBOR uses Core Deterministic Encoding,
// so the same document always produces identical bytes but fields come
// back sorted by name.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Point72/chatom/core/mapping"
	"github.com/Point72/chatom/core/model"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	CBOR Format = "cbor"
)

// Formats lists the supported formats.
var Formats = []Format{YAML, JSON, CBOR}

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	}
	return "", fmt.Errorf("unknown format %q (want yaml, json or cbor)", s)
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// ContentType returns the media type of the format.
func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case CBOR:
		return "application/cbor"
	default:
		return "application/yaml"
	}
}

// FormatFromContentType picks a format from a Content-Type or Accept
// value. Unknown or empty types select JSON.
func FormatFromContentType(ct string) Format {
	switch {
	case strings.Contains(ct, "cbor"):
		return CBOR
	case strings.Contains(ct, "yaml"):
		return YAML
	default:
		return JSON
	}
}

// DecodeDocument reads one document.
func DecodeDocument(r io.Reader, f Format) (model.Document, error) {
	var doc model.Document
	var err error
	switch f {
	case YAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case JSON:
		err = json.NewDecoder(r).Decode(&doc)
	case CBOR:
		doc, err = decodeCBORDocument(r)
	default:
		err = fmt.Errorf("unknown format %q", f)
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("decode %s document: %w", f, err)
	}
	if err := doc.Validate(); err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

// EncodeDocument writes one document.
func EncodeDocument(w io.Writer, f Format, doc model.Document) error {
	if f == CBOR {
		return encodeCBORDocument(w, doc)
	}
	if doc.Fields == nil {
		doc.Fields = doc.FieldMapping()
	}
	return Encode(w, f, doc)
}

// Encode writes any value: YAML with two-space indent, indented JSON or
// deterministic CBOR.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case CBOR:
		return NewCBOREncoder(w).Encode(v)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Marshal encodes v into a byte slice.
func Marshal(f Format, v any) ([]byte, error) {
	var buf bytes.Buffer
	if doc, ok := v.(model.Document); ok {
		if err := EncodeDocument(&buf, f, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if err := Encode(&buf, f, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalDocument decodes a document from data.
func UnmarshalDocument(data []byte, f Format) (model.Document, error) {
	return DecodeDocument(bytes.NewReader(data), f)
}

// UnmarshalExtra decodes the optional top-level "extra" mapping that
// travels next to a document in promote requests. It returns nil when
// the key is absent.
func UnmarshalExtra(data []byte, f Format) (map[string]any, error) {
	switch f {
	case YAML:
		var req struct {
			Extra *mapping.Mapping `yaml:"extra"`
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("decode extra: %w", err)
		}
		return mappingToMap(req.Extra), nil
	case JSON:
		var req struct {
			Extra *mapping.Mapping `json:"extra"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("decode extra: %w", err)
		}
		return mappingToMap(req.Extra), nil
	case CBOR:
		var req struct {
			Extra map[string]any `cbor:"extra"`
		}
		if err := decMode.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("decode extra: %w", err)
		}
		return req.Extra, nil
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

func mappingToMap(m *mapping.Mapping) map[string]any {
	if m == nil {
		return nil
	}
	return m.ToMap()
}
