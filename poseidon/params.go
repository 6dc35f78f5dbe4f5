package poseidon

import "errors"

// Poseidon hash constants
const (
	// MaxInputs defines the maximum number of field elements accepted by
	// the variable-arity Poseidon hash in a single invocation.
	//
	// The underlying permutation is parameterised for widths t = 2..17,
	// which bounds the input arity at 16.
	MaxInputs = 16

	// CipherWidth defines the permutation width used by the authenticated
	// Poseidon cipher (three rate elements plus one capacity element).
	CipherWidth = 4
)

var (
	// ErrorPoseidonInvalidInputLength is returned when the number of hash
	// inputs is zero or exceeds MaxInputs.
	ErrorPoseidonInvalidInputLength = errors.New("invalid input length")

	// ErrorPoseidonInputNotInField is returned when a hash or permutation
	// input is nil, negative, or not reduced modulo the SNARK field.
	ErrorPoseidonInputNotInField = errors.New("input not inside finite field")
)
