package utils

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestSafeSlice(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}

	tests := []struct {
		name       string
		start, end int
		expected   []byte
		ok         bool
	}{
		{name: "full range", start: 0, end: 5, expected: data, ok: true},
		{name: "inner range", start: 1, end: 3, expected: []byte{2, 3}, ok: true},
		{name: "empty range", start: 2, end: 2, expected: []byte{}, ok: true},
		{name: "negative start", start: -1, end: 3},
		{name: "negative end", start: 0, end: -1},
		{name: "inverted range", start: 3, end: 1},
		{name: "end out of bounds", start: 0, end: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, ok := SafeSlice(data, tt.start, tt.end)

			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.expected, actual)
			} else {
				assert.Nil(t, actual)
			}
		})
	}
}

func TestReadFieldRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("WriteField then ReadField returns the original value", prop.ForAll(
		func(raw []byte) bool {
			value := new(big.Int).SetBytes(raw)
			encoded := WriteField(nil, value)

			decoded, offset := ReadField(encoded, 0)

			return decoded != nil && offset == FieldByteSize && decoded.Cmp(value) == 0
		},
		gen.SliceOfN(FieldByteSize, gen.UInt8()),
	))

	properties.TestingRun(t)
}

func TestReadFieldOutOfBounds(t *testing.T) {
	value, offset := ReadField(make([]byte, FieldByteSize-1), 0)

	assert.Nil(t, value)
	assert.Equal(t, 0, offset)
}
