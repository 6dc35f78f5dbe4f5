package groth16

import "errors"

var (
	// ErrorUnknownCircuit is returned when a key set holds no verifying
	// key for the named circuit.
	ErrorUnknownCircuit = errors.New("unknown circuit")

	// ErrorInvalidProof is returned when the proof bytes cannot be parsed.
	ErrorInvalidProof = errors.New("invalid proof")

	// ErrorInvalidVerifyingKey is returned when the verifying key bytes
	// cannot be parsed or fail precomputation.
	ErrorInvalidVerifyingKey = errors.New("invalid verifying key")

	// ErrorInvalidPublicWitness is returned when the public inputs cannot
	// be assembled into a witness.
	ErrorInvalidPublicWitness = errors.New("invalid public witness")

	// ErrorProofVerificationFailed is returned when a well-formed proof
	// does not verify against the key and public inputs.
	ErrorProofVerificationFailed = errors.New("proof verification failed")

	// ErrorPanicDuringVerification is returned when the underlying pairing
	// code panics on adversarial input; it is surfaced instead of crashing
	// the round.
	ErrorPanicDuringVerification = errors.New("panic during proof verification")
)
