package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSONConverter implements JSON body serialization.
type JSONConverter struct{}

var _ Converter = JSONConverter{}

// JSON returns a new JSON converter.
func JSON() JSONConverter {
	return JSONConverter{}
}

// Serialize encodes v as JSON.
func (JSONConverter) Serialize(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed marshalling JSON: %w", err)
	}
	return data, nil
}

// Deserialize decodes JSON from r into target. Decoding into a *string or
// *[]byte yields the raw body text instead.
func (JSONConverter) Deserialize(r io.Reader, target any) error {
	switch t := target.(type) {
	case *string:
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed reading body: %w", err)
		}
		*t = string(data)
		return nil
	case *[]byte:
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed reading body: %w", err)
		}
		*t = data
		return nil
	}

	if err := json.NewDecoder(r).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("failed decoding JSON: empty body")
		}
		return fmt.Errorf("failed decoding JSON: %w", err)
	}

	return nil
}
