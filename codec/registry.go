package codec

import (
	"errors"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.hackfix.me/parley/header"
)

// Registry associates content types with converters. It is safe for
// concurrent use; a lookup racing with a registration returns either the old
// or the new converter.
type Registry struct {
	mx         sync.RWMutex
	converters map[string]Converter
	scalar     ScalarConverter
}

// NewRegistry returns a Registry with the default converters registered for
// JSON, URL-encoded forms and plain text.
func NewRegistry() *Registry {
	r := &Registry{
		converters: make(map[string]Converter),
		scalar:     DefaultScalar(),
	}
	r.converters[ApplicationJSON] = JSON()
	r.converters[FormURLEncoded] = registryForm{r}
	r.converters[TextPlain] = registryText{r}

	return r
}

// Register associates contentType with c, replacing any converter previously
// registered for it. Media-type parameters (e.g. charset) are ignored.
func (r *Registry) Register(contentType string, c Converter) error {
	if c == nil {
		return errors.New("converter is required")
	}
	ct := header.MediaType(contentType)
	if ct == "" {
		return errors.New("content type is required")
	}

	r.mx.Lock()
	defer r.mx.Unlock()
	r.converters[ct] = c

	return nil
}

// Converter returns the converter registered for contentType.
//
//nolint:ireturn // Converters are polymorphic.
func (r *Registry) Converter(contentType string) (Converter, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	c, ok := r.converters[header.MediaType(contentType)]
	return c, ok
}

// Serializer returns the serializer registered for contentType.
//
//nolint:ireturn // See Converter.
func (r *Registry) Serializer(contentType string) (Serializer, bool) {
	return r.Converter(contentType)
}

// Deserializer returns the deserializer registered for contentType.
//
//nolint:ireturn // See Converter.
func (r *Registry) Deserializer(contentType string) (Deserializer, bool) {
	return r.Converter(contentType)
}

// SetScalarConverter replaces the converter used for bare primitive values.
// A nil converter restores the default one.
func (r *Registry) SetScalarConverter(c ScalarConverter) {
	if c == nil {
		c = DefaultScalar()
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	r.scalar = c
}

// Scalar returns the current scalar converter.
//
//nolint:ireturn // See Converter.
func (r *Registry) Scalar() ScalarConverter {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.scalar
}

// ContentTypes returns the registered content types in sorted order.
func (r *Registry) ContentTypes() []string {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return slices.Sorted(maps.Keys(r.converters))
}

// DecodeString deserializes data with the deserializer registered for
// contentType.
func (r *Registry) DecodeString(contentType, data string, target any) error {
	d, ok := r.Deserializer(contentType)
	if !ok {
		return errors.New("no deserializer for content type " + contentType)
	}
	return d.Deserialize(strings.NewReader(data), target) //nolint:wrapcheck // Wrapped by caller.
}

// registryText is the text converter bound to the registry's current scalar
// converter.
type registryText struct {
	r *Registry
}

func (t registryText) Serialize(v any) ([]byte, error) {
	return TextConverter{Scalar: t.r.Scalar()}.Serialize(v)
}

func (t registryText) Deserialize(rd io.Reader, target any) error {
	return TextConverter{Scalar: t.r.Scalar()}.Deserialize(rd, target)
}

// registryForm is the form converter bound to the registry's current scalar
// converter.
type registryForm struct {
	r *Registry
}

func (f registryForm) Serialize(v any) ([]byte, error) {
	return FormConverter{Scalar: f.r.Scalar()}.Serialize(v)
}

func (f registryForm) Deserialize(rd io.Reader, target any) error {
	return FormConverter{Scalar: f.r.Scalar()}.Deserialize(rd, target)
}
