package codec

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// KeyPath maps a struct field to its serialized key.
type KeyPath struct {
	Field string
	Key   string
}

// EncodeTable writes the fields of the struct v named by table. Nil pointer
// fields are omitted.
func EncodeTable(enc Encoder, v any, table []KeyPath) error {
	rv, err := structValue(v, false)
	if err != nil {
		return err
	}
	for _, kp := range table {
		f, err := field(rv, kp.Field)
		if err != nil {
			return err
		}
		if f.Kind() == reflect.Pointer && f.IsNil() {
			continue
		}
		if err := enc.Encode(kp.Key, f.Interface()); err != nil {
			return errors.Wrapf(err, "encode %q", kp.Key)
		}
	}
	return nil
}

// DecodeTable reads the keys of table into the struct pointed to by v.
// Absent and malformed values leave the field untouched; null clears
// pointer fields.
func DecodeTable(dec Decoder, v any, table []KeyPath) error {
	rv, err := structValue(v, true)
	if err != nil {
		return err
	}
	for _, kp := range table {
		f, err := field(rv, kp.Field)
		if err != nil {
			return err
		}
		if !dec.Has(kp.Key) {
			continue
		}
		if dec.IsNull(kp.Key) {
			if f.Kind() == reflect.Pointer {
				f.Set(reflect.Zero(f.Type()))
			}
			continue
		}
		nv := reflect.New(f.Type())
		if err := dec.Decode(kp.Key, nv.Interface()); err != nil {
			continue
		}
		f.Set(nv.Elem())
	}
	return nil
}

// MarshalTable encodes the struct v as a JSON object through table.
func MarshalTable(v any, table []KeyPath) ([]byte, error) {
	enc := NewJSONEncoder()
	if err := EncodeTable(enc, v, table); err != nil {
		return nil, err
	}
	return enc.Bytes()
}

// UnmarshalTable decodes a JSON object into the struct pointed to by v.
func UnmarshalTable(data []byte, v any, table []KeyPath) error {
	dec, err := NewJSONDecoder(data)
	if err != nil {
		return err
	}
	return DecodeTable(dec, v, table)
}

func structValue(v any, settable bool) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, errors.New("nil record")
		}
		rv = rv.Elem()
	} else if settable {
		return reflect.Value{}, errors.Newf("decode target must be a pointer, got %T", v)
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Newf("record must be a struct, got %s", rv.Kind())
	}
	return rv, nil
}

// field returns the named field of rv, reaching unexported fields through
// their address when rv is addressable.
func field(rv reflect.Value, name string) (reflect.Value, error) {
	f := rv.FieldByName(name)
	if !f.IsValid() {
		return reflect.Value{}, errors.Newf("%s has no field %q", rv.Type(), name)
	}
	if f.CanInterface() {
		return f, nil
	}
	if !f.CanAddr() {
		return reflect.Value{}, errors.Newf("field %s.%s is unexported, pass a pointer", rv.Type(), name)
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem(), nil
}
