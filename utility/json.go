package utility

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrTrailingData is returned when a JSON document is followed by another value.
var ErrTrailingData = errors.New("json: trailing data after top-level value")

// DecodeJSON decodes the JSON document read from r into a value of type T.
// The document must be the only content of r apart from whitespace.
// Decoder errors are returned unchanged.
//
// Example:
//
//	stats, err := DecodeJSON[Stats](resp.Body)
func DecodeJSON[T any](r io.Reader) (T, error) {
	var v T
	if err := DecodeJSONInto(r, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// DecodeJSONInto decodes the JSON document read from r into v, which must be
// a pointer, with the same rules as DecodeJSON.
func DecodeJSONInto(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}

	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return fmt.Errorf("%w: offset %d", ErrTrailingData, dec.InputOffset())
	}
}
