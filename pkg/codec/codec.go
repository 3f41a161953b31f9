// Package codec is the runtime used by generated DecodeFrom and EncodeTo
// methods. Decoding is lenient: absent, null or malformed values leave the
// caller's fallback in place, so records stay readable as their schema
// evolves. The Strict helpers report malformed values instead.
package codec

import (
	"github.com/cockroachdb/errors"
)

// Decoder reads keyed values from a serialized container.
type Decoder interface {
	// Has reports whether key is present, null included.
	Has(key string) bool
	// IsNull reports whether key is present and explicitly null.
	IsNull(key string) bool
	// Decode stores the value of key in the value pointed to by v.
	Decode(key string, v any) error
}

// Encoder writes keyed values into a serialized container. Encoding a key
// twice replaces the earlier value.
type Encoder interface {
	Encode(key string, v any) error
}

// Decodable is implemented by generated records.
type Decodable interface {
	DecodeFrom(dec Decoder) error
}

// Encodable is implemented by generated records.
type Encodable interface {
	EncodeTo(enc Encoder) error
}

// Codable is implemented by every record carrying the codable macro.
type Codable interface {
	Decodable
	Encodable
}

// ErrMalformed marks values present under a key that do not fit the field.
var ErrMalformed = errors.New("malformed value")

// DecodeOr returns the value under key, or fallback when it is absent, null
// or malformed.
func DecodeOr[K ~string, T any](dec Decoder, key K, fallback T) T {
	v, err := DecodeOrStrict(dec, key, fallback)
	if err != nil {
		return fallback
	}
	return v
}

// DecodeOrStrict is DecodeOr reporting malformed values as errors.
func DecodeOrStrict[K ~string, T any](dec Decoder, key K, fallback T) (T, error) {
	k := string(key)
	if !dec.Has(k) || dec.IsNull(k) {
		return fallback, nil
	}
	var v T
	if err := dec.Decode(k, &v); err != nil {
		return fallback, errors.Mark(errors.Wrapf(err, "decode %q", k), ErrMalformed)
	}
	return v, nil
}

// DecodeOptional returns the value under key, nil when it is null, or
// fallback when it is absent or malformed.
func DecodeOptional[K ~string, T any](dec Decoder, key K, fallback *T) *T {
	v, err := DecodeOptionalStrict(dec, key, fallback)
	if err != nil {
		return fallback
	}
	return v
}

// DecodeOptionalStrict is DecodeOptional reporting malformed values as
// errors.
func DecodeOptionalStrict[K ~string, T any](dec Decoder, key K, fallback *T) (*T, error) {
	k := string(key)
	switch {
	case !dec.Has(k):
		return fallback, nil
	case dec.IsNull(k):
		return nil, nil
	}
	v := new(T)
	if err := dec.Decode(k, v); err != nil {
		return fallback, errors.Mark(errors.Wrapf(err, "decode %q", k), ErrMalformed)
	}
	return v, nil
}

// Encode writes v under key.
func Encode[K ~string, T any](enc Encoder, key K, v T) error {
	if err := enc.Encode(string(key), v); err != nil {
		return errors.Wrapf(err, "encode %q", string(key))
	}
	return nil
}

// EncodeOptional writes *v under key, or nothing when v is nil.
func EncodeOptional[K ~string, T any](enc Encoder, key K, v *T) error {
	if v == nil {
		return nil
	}
	return Encode(enc, key, *v)
}
