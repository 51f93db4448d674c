package codec

import (
	"fmt"
	"io"
)

// TextConverter is a plain-text pass-through. Strings and byte slices are
// written as is, and other scalars go through the scalar converter.
type TextConverter struct {
	// Scalar converts non-string values. DefaultScalar is used if nil.
	Scalar ScalarConverter
}

var _ Converter = TextConverter{}

// Text returns a new plain-text converter.
func Text() TextConverter {
	return TextConverter{}
}

func (t TextConverter) scalar() ScalarConverter { //nolint:ireturn // Polymorphic.
	if t.Scalar == nil {
		return DefaultScalar()
	}
	return t.Scalar
}

// Serialize returns the textual form of v.
func (t TextConverter) Serialize(v any) ([]byte, error) {
	switch val := v.(type) {
	case string:
		return []byte(val), nil
	case []byte:
		return val, nil
	case fmt.Stringer:
		return []byte(val.String()), nil
	}

	s, err := t.scalar().Format(v)
	if err != nil {
		return nil, fmt.Errorf("failed formatting text body: %w", err)
	}
	return []byte(s), nil
}

// Deserialize reads the body as text into target.
func (t TextConverter) Deserialize(r io.Reader, target any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed reading body: %w", err)
	}

	switch tg := target.(type) {
	case *string:
		*tg = string(data)
		return nil
	case *[]byte:
		*tg = data
		return nil
	}

	if err = t.scalar().Parse(string(data), target); err != nil {
		return fmt.Errorf("failed parsing text body: %w", err)
	}

	return nil
}
