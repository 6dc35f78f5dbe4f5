package utils

import "math/big"

// FieldByteSize defines the fixed byte length of a serialised field element.
//
// Every scalar and curve coordinate crossing a byte boundary in this module
// is encoded as a big-endian integer padded to this size.
const FieldByteSize = 32

// SafeSlice returns a subslice of data from start (inclusive) to end
// (exclusive) in a panic-free manner.
//
// The function performs explicit bounds checking before slicing and returns
// (nil, false) if the requested range is invalid. A range is considered
// invalid if any of the following conditions hold:
//   - start or end is negative
//   - start is greater than end
//   - end exceeds the length of the input slice
//
// When the range is valid, the returned slice aliases the underlying data and
// no copying is performed.
//
// This helper is intended for use in low-level parsing code (e.g. proof and
// witness decoding), where slice bounds violations must be handled explicitly
// rather than causing a runtime panic.
func SafeSlice(data []byte, start, end int) ([]byte, bool) {
	if start < 0 || end < 0 || start > end || end > len(data) {
		return nil, false
	}

	return data[start:end], true
}

// ReadField reads a fixed-width big-endian field element from data at the
// given offset and returns it together with the advanced offset.
//
// The element occupies FieldByteSize bytes. ReadField returns (nil, offset)
// when the requested range falls outside data; callers must treat a nil
// result as a parse failure.
func ReadField(data []byte, offset int) (*big.Int, int) {
	slice, ok := SafeSlice(data, offset, offset+FieldByteSize)

	if !ok {
		return nil, offset
	}

	return new(big.Int).SetBytes(slice), offset + FieldByteSize
}

// WriteField serialises a field element as a big-endian integer padded to
// FieldByteSize bytes and appends it to out.
//
// The value must be non-negative and fit in FieldByteSize bytes; both hold
// for any reduced field element.
func WriteField(out []byte, value *big.Int) []byte {
	return append(out, value.FillBytes(make([]byte, FieldByteSize))...)
}
