package bn254

import "errors"

// BN254 Groth16 serialisation constants
const (
	// FieldSize is the byte size of a single base field element,
	// big-endian.
	FieldSize = 32

	// G1Size is the byte size of an uncompressed affine G1 point (X ‖ Y).
	G1Size = 2 * FieldSize

	// G2Size is the byte size of an uncompressed affine G2 point
	// (X.A1 ‖ X.A0 ‖ Y.A1 ‖ Y.A0).
	G2Size = 4 * FieldSize

	// ProofSize is the byte size of a serialised Groth16 proof:
	// G1 Ar ‖ G2 Bs ‖ G1 Krs.
	ProofSize = 2*G1Size + G2Size

	// VerifyingKeyBaseSize is the byte size of the fixed part of a
	// serialised verifying key: G1 Alpha ‖ G2 Beta ‖ G2 Gamma ‖ G2 Delta.
	// One additional G1 IC point follows per public input, plus one.
	VerifyingKeyBaseSize = G1Size + 3*G2Size
)

var (
	// ErrorInvalidG1 is returned when a G1 point cannot be read from the
	// input buffer.
	ErrorInvalidG1 = errors.New("invalid g1 point")

	// ErrorInvalidG2 is returned when a G2 point cannot be read from the
	// input buffer.
	ErrorInvalidG2 = errors.New("invalid g2 point")

	// ErrorInvalidWitness is returned when public inputs cannot be
	// assembled into a gnark witness.
	ErrorInvalidWitness = errors.New("invalid public witness")
)
