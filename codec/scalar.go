package codec

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// StrconvScalar formats and parses booleans, numbers and strings using
// strconv. Named types with those underlying kinds are supported too.
type StrconvScalar struct{}

var _ ScalarConverter = StrconvScalar{}

// DefaultScalar returns the default scalar converter.
func DefaultScalar() StrconvScalar {
	return StrconvScalar{}
}

// Format returns the string form of v.
func (StrconvScalar) Format(v any) (string, error) {
	if v == nil {
		return "", nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %T is not a scalar", ErrUnsupported, v)
	}
}

// Parse parses s into target, which must be a non-nil pointer to a scalar.
func (StrconvScalar) Parse(s string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}
	ev := rv.Elem()
	s = strings.TrimSpace(s)

	switch ev.Kind() {
	case reflect.String:
		ev.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("failed parsing bool: %w", err)
		}
		ev.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, ev.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed parsing integer: %w", err)
		}
		ev.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, ev.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed parsing unsigned integer: %w", err)
		}
		ev.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, ev.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed parsing float: %w", err)
		}
		ev.SetFloat(f)
	case reflect.Interface:
		if ev.NumMethod() != 0 {
			return fmt.Errorf("%w: %s", ErrUnsupported, ev.Type())
		}
		ev.Set(reflect.ValueOf(s))
	default:
		return fmt.Errorf("%w: %s is not a scalar", ErrUnsupported, ev.Type())
	}

	return nil
}
