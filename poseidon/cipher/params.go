package cipher

import "errors"

var (
	// ErrorCipherLengthMismatch is returned when a ciphertext does not
	// carry exactly one element per plaintext slot plus the trailing
	// authentication tag, or when the requested plaintext length is zero.
	ErrorCipherLengthMismatch = errors.New("ciphertext length mismatch")

	// ErrorCipherAuthTagMismatch is returned when the recomputed
	// authentication tag does not match the ciphertext's trailing element,
	// i.e. the ciphertext was not produced under the given key and nonce.
	ErrorCipherAuthTagMismatch = errors.New("authentication tag mismatch")

	// ErrorCipherInvalidInput is returned when a plaintext or key element
	// is not a reduced field element.
	ErrorCipherInvalidInput = errors.New("input not inside finite field")
)
