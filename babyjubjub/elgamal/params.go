package elgamal

import "errors"

// Parity ElGamal constants
const (
	// OddMarker is the plaintext integer encrypted for parity "odd"
	// (a deactivated leaf). The marker is itself odd so that the decoded
	// value modulo 2 equals the encrypted parity.
	OddMarker = 123

	// EvenMarker is the plaintext integer encrypted for parity "even"
	// (a still-active leaf).
	EvenMarker = 124

	// maxEncodeAttempts bounds the x-increment search when embedding an
	// integer into a curve point. Roughly half of all x coordinates lie on
	// the curve, so the bound is never reached in practice.
	maxEncodeAttempts = 256
)

var (
	// ErrorInvalidCiphertext is returned when a ciphertext point is not on
	// the curve or its randomness component is outside the prime-order
	// subgroup.
	ErrorInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrorDecodeFailure is returned when the decrypted point does not
	// decode to a known parity marker.
	ErrorDecodeFailure = errors.New("decoded value outside marker table")

	// ErrorEncodeFailure is returned when no curve point is found within
	// maxEncodeAttempts increments of the plaintext integer.
	ErrorEncodeFailure = errors.New("no curve embedding found")
)
