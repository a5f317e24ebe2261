package codec

import (
	"io"
	"reflect"

	"github.com/Point72/chatom/core/mapping"
	"github.com/Point72/chatom/core/model"
	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 section 4.2) with
// timestamps as RFC 3339 strings.
var encMode cbor.EncMode

// decMode decodes maps under any-typed targets as map[string]any.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// cborDocument is the CBOR wire form of model.Document.
type cborDocument struct {
	Type   string         `cbor:"type"`
	Fields map[string]any `cbor:"fields"`
}

// NewCBOREncoder returns a deterministic CBOR stream encoder.
func NewCBOREncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewCBORDecoder returns a CBOR stream decoder.
func NewCBORDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 section 8)
// of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

func encodeCBORDocument(w io.Writer, doc model.Document) error {
	return NewCBOREncoder(w).Encode(cborDocument{
		Type:   doc.Type,
		Fields: doc.FieldMapping().ToMap(),
	})
}

func decodeCBORDocument(r io.Reader) (model.Document, error) {
	var wire cborDocument
	if err := NewCBORDecoder(r).Decode(&wire); err != nil {
		return model.Document{}, err
	}
	return model.Document{Type: wire.Type, Fields: mapping.FromMap(wire.Fields)}, nil
}
