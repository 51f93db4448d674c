// Package codec maps content types to body serializers and deserializers.
//
// A Registry is created explicitly and passed to its consumers (the HTTP
// client and the web server). It ships with converters for JSON, URL-encoded
// forms and plain text, and a scalar converter for bare primitive values.
package codec

import (
	"errors"
	"io"
)

// Content types handled natively.
const (
	ApplicationJSON = "application/json"
	FormURLEncoded  = "application/x-www-form-urlencoded"
	TextPlain       = "text/plain"
)

// Serializer encodes a value into a body.
type Serializer interface {
	Serialize(v any) ([]byte, error)
}

// Deserializer decodes a body into target, which must be a non-nil pointer.
type Deserializer interface {
	Deserialize(r io.Reader, target any) error
}

// Converter is able to both serialize and deserialize bodies of a single
// content type.
type Converter interface {
	Serializer
	Deserializer
}

// ScalarConverter converts bare primitive values to and from strings.
type ScalarConverter interface {
	Format(v any) (string, error)
	Parse(s string, target any) error
}

// ErrUnsupported is returned when a converter can't handle a value or
// target type.
var ErrUnsupported = errors.New("unsupported type")
