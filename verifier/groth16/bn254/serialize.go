package bn254

import (
	"github.com/consensys/gnark-crypto/ecc/bn254"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// appendG1 serialises an affine G1 point as X ‖ Y.
func appendG1(out []byte, point *bn254.G1Affine) []byte {
	x := point.X.Bytes()
	y := point.Y.Bytes()

	out = append(out, x[:]...)

	return append(out, y[:]...)
}

// appendG2 serialises an affine G2 point as X.A1 ‖ X.A0 ‖ Y.A1 ‖ Y.A0.
func appendG2(out []byte, point *bn254.G2Affine) []byte {
	x1 := point.X.A1.Bytes()
	x0 := point.X.A0.Bytes()
	y1 := point.Y.A1.Bytes()
	y0 := point.Y.A0.Bytes()

	out = append(out, x1[:]...)
	out = append(out, x0[:]...)
	out = append(out, y1[:]...)

	return append(out, y0[:]...)
}

// SerializeProof converts a Groth16 proof into the affine byte layout
// ParseProof reads.
func SerializeProof(proof *groth16bn254.Proof) []byte {
	out := make([]byte, 0, ProofSize)

	out = appendG1(out, &proof.Ar)
	out = appendG2(out, &proof.Bs)

	return appendG1(out, &proof.Krs)
}

// SerializeVerifyingKey converts a Groth16 verifying key into the affine
// byte layout ParseVerifyingKey reads.
func SerializeVerifyingKey(vk *groth16bn254.VerifyingKey) []byte {
	out := make([]byte, 0, VerifyingKeyBaseSize+G1Size*len(vk.G1.K))

	out = appendG1(out, &vk.G1.Alpha)
	out = appendG2(out, &vk.G2.Beta)
	out = appendG2(out, &vk.G2.Gamma)
	out = appendG2(out, &vk.G2.Delta)

	for index := range vk.G1.K {
		out = appendG1(out, &vk.G1.K[index])
	}

	return out
}
