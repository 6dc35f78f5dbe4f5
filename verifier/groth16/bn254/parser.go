// Package bn254 decodes Groth16 artifacts serialised in the Solidity
// affine byte layout used by the voting contract: uncompressed points with
// big-endian field elements.
package bn254

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/privacy-ethereum/amaci-core/utils"
)

// ParseG1 parses an affine G1 point (32-byte big-endian X then Y) from data
// at the given offset, writes it into destination and returns the advanced
// offset.
func ParseG1(data []byte, offset int, destination *bn254.G1Affine) (int, error) {
	x, ok := utils.SafeSlice(data, offset, offset+FieldSize)

	if !ok {
		return offset, ErrorInvalidG1
	}

	y, ok := utils.SafeSlice(data, offset+FieldSize, offset+G1Size)

	if !ok {
		return offset, ErrorInvalidG1
	}

	destination.X.SetBytes(x)
	destination.Y.SetBytes(y)

	return offset + G1Size, nil
}

// ParseG2 parses an affine G2 point (X.A1 ‖ X.A0 ‖ Y.A1 ‖ Y.A0, each a
// 32-byte big-endian field element) from data at the given offset, writes
// it into destination and returns the advanced offset.
func ParseG2(data []byte, offset int, destination *bn254.G2Affine) (int, error) {
	components := [4][]byte{}

	for i := range components {
		slice, ok := utils.SafeSlice(data, offset+i*FieldSize, offset+(i+1)*FieldSize)

		if !ok {
			return offset, ErrorInvalidG2
		}

		components[i] = slice
	}

	destination.X.A1.SetBytes(components[0])
	destination.X.A0.SetBytes(components[1])
	destination.Y.A1.SetBytes(components[2])
	destination.Y.A0.SetBytes(components[3])

	return offset + G2Size, nil
}

// ParseProof parses a serialised Groth16 proof (G1 Ar ‖ G2 Bs ‖ G1 Krs).
func ParseProof(data []byte) (groth16.Proof, error) {
	var proof groth16bn254.Proof

	offset, err := ParseG1(data, 0, &proof.Ar)

	if err != nil {
		return nil, err
	}

	offset, err = ParseG2(data, offset, &proof.Bs)

	if err != nil {
		return nil, err
	}

	if _, err := ParseG1(data, offset, &proof.Krs); err != nil {
		return nil, err
	}

	return &proof, nil
}

// ParseVerifyingKey parses a serialised verifying key:
// G1 Alpha ‖ G2 Beta ‖ G2 Gamma ‖ G2 Delta ‖ (numberOfPublicInputs+1) G1 IC
// points. The pairing precomputation is performed before returning.
func ParseVerifyingKey(data []byte, numberOfPublicInputs int) (groth16.VerifyingKey, error) {
	var vk groth16bn254.VerifyingKey

	offset, err := ParseG1(data, 0, &vk.G1.Alpha)

	if err != nil {
		return nil, err
	}

	offset, err = ParseG2(data, offset, &vk.G2.Beta)

	if err != nil {
		return nil, err
	}

	offset, err = ParseG2(data, offset, &vk.G2.Gamma)

	if err != nil {
		return nil, err
	}

	offset, err = ParseG2(data, offset, &vk.G2.Delta)

	if err != nil {
		return nil, err
	}

	vk.G1.K = make([]bn254.G1Affine, numberOfPublicInputs+1)

	for index := range vk.G1.K {
		offset, err = ParseG1(data, offset, &vk.G1.K[index])

		if err != nil {
			return nil, err
		}
	}

	if err := vk.Precompute(); err != nil {
		return nil, err
	}

	return &vk, nil
}

// NewPublicWitness assembles reduced field elements into a gnark public
// witness.
func NewPublicWitness(publicInputs []*big.Int) (witness.Witness, error) {
	publicWitness, err := witness.New(ecc.BN254.ScalarField())

	if err != nil {
		return nil, err
	}

	channel := make(chan any, len(publicInputs))

	for _, input := range publicInputs {
		if input == nil {
			return nil, ErrorInvalidWitness
		}

		channel <- new(big.Int).Set(input)
	}

	close(channel)

	if err := publicWitness.Fill(len(publicInputs), 0, channel); err != nil {
		return nil, ErrorInvalidWitness
	}

	return publicWitness, nil
}
