package codec

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSONDecoder reads keys from a JSON object.
type JSONDecoder struct {
	fields map[string]json.RawMessage
}

// NewJSONDecoder parses data, which must hold a JSON object.
func NewJSONDecoder(data []byte) (*JSONDecoder, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, "decode json object")
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return &JSONDecoder{fields: fields}, nil
}

func (d *JSONDecoder) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

func (d *JSONDecoder) IsNull(key string) bool {
	raw, ok := d.fields[key]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (d *JSONDecoder) Decode(key string, v any) error {
	raw, ok := d.fields[key]
	if !ok {
		return errors.Newf("key %q not found", key)
	}
	return json.Unmarshal(raw, v)
}

// JSONEncoder builds a JSON object, keeping keys in the order they were
// first encoded.
type JSONEncoder struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
}

func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{fields: orderedmap.New[string, json.RawMessage]()}
}

func (e *JSONEncoder) Encode(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.fields.Set(key, raw)
	return nil
}

// Keys returns the encoded keys in order.
func (e *JSONEncoder) Keys() []string {
	keys := make([]string, 0, e.fields.Len())
	for pair := e.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Bytes returns the encoded object.
func (e *JSONEncoder) Bytes() ([]byte, error) {
	return json.Marshal(e.fields)
}

// MarshalJSON encodes v as a JSON object.
func MarshalJSON(v Encodable) ([]byte, error) {
	enc := NewJSONEncoder()
	if err := v.EncodeTo(enc); err != nil {
		return nil, err
	}
	return enc.Bytes()
}

// UnmarshalJSON decodes the JSON object in data into v.
func UnmarshalJSON(data []byte, v Decodable) error {
	dec, err := NewJSONDecoder(data)
	if err != nil {
		return err
	}
	return v.DecodeFrom(dec)
}
