package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"go.hackfix.me/parley/header"
)

// FormConverter implements application/x-www-form-urlencoded serialization.
// Structs are flattened using their json tags, with the fields of embedded
// structs promoted to the top level, and decoded parameters are
// coerced into the target type with weak typing, so "42" fills an int field.
type FormConverter struct {
	// Scalar formats field values. DefaultScalar is used if nil.
	Scalar ScalarConverter
}

var _ Converter = FormConverter{}

// Form returns a new form converter.
func Form() FormConverter {
	return FormConverter{}
}

func (f FormConverter) scalar() ScalarConverter { //nolint:ireturn // Polymorphic.
	if f.Scalar == nil {
		return DefaultScalar()
	}
	return f.Scalar
}

// Serialize encodes v as key=value pairs joined by '&', percent-encoding keys
// and values. Keys are emitted in sorted order.
func (f FormConverter) Serialize(v any) ([]byte, error) {
	values, err := f.toValues(v)
	if err != nil {
		return nil, err
	}
	return []byte(values.Encode()), nil
}

func (f FormConverter) toValues(v any) (url.Values, error) {
	switch t := v.(type) {
	case url.Values:
		return t, nil
	case map[string][]string:
		return url.Values(t), nil
	case map[string]string:
		values := make(url.Values, len(t))
		for k, val := range t {
			values.Set(k, val)
		}
		return values, nil
	case *header.Map:
		values := make(url.Values, t.Len())
		for _, p := range t.Pairs() {
			values.Add(p.Key, p.Value)
		}
		return values, nil
	}

	var fields map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Squash:  true,
		Result:  &fields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed creating form encoder: %w", err)
	}
	if err = dec.Decode(v); err != nil {
		return nil, fmt.Errorf("failed flattening %T into form fields: %w", v, err)
	}

	values := make(url.Values, len(fields))
	for k, fv := range fields {
		if fv == nil {
			continue
		}
		rv := reflect.ValueOf(fv)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := range rv.Len() {
				s, err := f.formatValue(rv.Index(i).Interface())
				if err != nil {
					return nil, fmt.Errorf("failed encoding form field %q: %w", k, err)
				}
				values.Add(k, s)
			}
			continue
		}
		s, err := f.formatValue(fv)
		if err != nil {
			return nil, fmt.Errorf("failed encoding form field %q: %w", k, err)
		}
		values.Set(k, s)
	}

	return values, nil
}

// formatValue renders scalars with the scalar converter, and anything nested
// as compact JSON.
func (f FormConverter) formatValue(v any) (string, error) {
	s, err := f.scalar().Format(v)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrUnsupported) {
		return "", err //nolint:wrapcheck // Wrapped by caller.
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed encoding nested value: %w", err)
	}
	return string(data), nil
}

// Deserialize parses a URL-encoded body into a flat key to string mapping,
// where the first value of a repeated key wins, and coerces it into target.
func (f FormConverter) Deserialize(r io.Reader, target any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed reading body: %w", err)
	}

	if t, ok := target.(*string); ok {
		*t = string(data)
		return nil
	}

	values, err := url.ParseQuery(string(data))
	if err != nil {
		return fmt.Errorf("failed parsing form data: %w", err)
	}

	if t, ok := target.(*url.Values); ok {
		*t = values
		return nil
	}

	params := make(map[string]string, len(values))
	for k, vals := range values {
		if len(vals) > 0 {
			params[k] = vals[0]
		}
	}

	if t, ok := target.(*map[string]string); ok {
		*t = params
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("failed creating form decoder for %T: %w", target, err)
	}
	if err = dec.Decode(params); err != nil {
		return fmt.Errorf("failed decoding form data into %T: %w", target, err)
	}

	return nil
}
