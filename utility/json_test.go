package utility

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type Person struct {
		Name string `json:"name"`
	}

	type input struct {
		rawJSON string
	}

	type output struct {
		expectedRes Person
		expectedErr string
	}

	tests := []struct {
		name   string
		input  input
		output output
	}{
		{
			name:   "should decode struct",
			input:  input{rawJSON: `{"name":"foo"}`},
			output: output{expectedRes: Person{Name: "foo"}},
		},
		{
			name:   "decode struct should fail on type mismatch",
			input:  input{rawJSON: `{"name":123}`},
			output: output{expectedErr: "json: cannot unmarshal number"},
		},
		{
			name:   "decode should fail on truncated body",
			input:  input{rawJSON: `{"name":`},
			output: output{expectedErr: "unexpected EOF"},
		},
		{
			name:   "decode should fail on trailing garbage",
			input:  input{rawJSON: `{"name":"foo"} trailing garbage`},
			output: output{expectedErr: "invalid character 't'"},
		},
		{
			name:   "decode should fail on a second document",
			input:  input{rawJSON: `{"name":"foo"}{"name":"bar"}`},
			output: output{expectedErr: "trailing data"},
		},
		{
			name:   "should accept trailing whitespace",
			input:  input{rawJSON: "{\"name\":\"foo\"}\n\t "},
			output: output{expectedRes: Person{Name: "foo"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeJSON[Person](strings.NewReader(tt.input.rawJSON))
			if tt.output.expectedErr != "" {
				assert.ErrorContains(t, err, tt.output.expectedErr)
			} else {
				assert.NilError(t, err)
			}

			assert.DeepEqual(t, res, tt.output.expectedRes)
		})
	}
}

func TestDecodeJSONAny(t *testing.T) {
	t.Parallel()

	res, err := DecodeJSON[any](strings.NewReader(`{"a":1}`))
	assert.NilError(t, err)
	assert.DeepEqual(t, res, any(map[string]any{"a": float64(1)}))
}

func TestDecodeJSONInto(t *testing.T) {
	t.Parallel()

	var v map[string]int
	assert.NilError(t, DecodeJSONInto(strings.NewReader(`{"a":1}`), &v))
	assert.DeepEqual(t, v, map[string]int{"a": 1})

	err := DecodeJSONInto(strings.NewReader(`{"a":1} [2]`), &v)
	assert.ErrorIs(t, err, ErrTrailingData)
}
