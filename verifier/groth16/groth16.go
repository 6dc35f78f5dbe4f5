// Package groth16 verifies the operator's batch proofs over BN254 exactly
// the way the voting contract does, so the local round model can gate state
// transitions on the same checks the chain applies.
package groth16

import (
	"math/big"

	gnarkgroth16 "github.com/consensys/gnark/backend/groth16"
	"github.com/privacy-ethereum/amaci-core/commitment"
	"github.com/privacy-ethereum/amaci-core/verifier/groth16/bn254"
)

// KeySet maps circuit names to their serialised verifying keys. A round
// configures one entry per proof type it intends to check; circuits without
// an entry are not verifiable through the set.
type KeySet map[string][]byte

// Verify checks a Groth16 proof against a serialised verifying key and the
// ordered public inputs.
//
// The proof and key use the Solidity affine byte layout. Malformed inputs
// yield typed parse errors; a structurally valid proof that fails the
// pairing check yields ErrorProofVerificationFailed.
func Verify(proofBytes, vkBytes []byte, publicInputs []*big.Int) (err error) {
	defer func() {
		if recover() != nil {
			err = ErrorPanicDuringVerification
		}
	}()

	proof, parseErr := bn254.ParseProof(proofBytes)

	if parseErr != nil {
		return ErrorInvalidProof
	}

	vk, parseErr := bn254.ParseVerifyingKey(vkBytes, len(publicInputs))

	if parseErr != nil {
		return ErrorInvalidVerifyingKey
	}

	publicWitness, parseErr := bn254.NewPublicWitness(publicInputs)

	if parseErr != nil {
		return ErrorInvalidPublicWitness
	}

	if verifyErr := gnarkgroth16.Verify(proof, vk, publicWitness); verifyErr != nil {
		return ErrorProofVerificationFailed
	}

	return nil
}

// VerifyCircuit checks a proof for the circuit named by the input bundle,
// using the key set's verifying key for that circuit.
func (k KeySet) VerifyCircuit(inputs commitment.CircuitInputs, proofBytes []byte) error {
	vkBytes, ok := k[inputs.Name()]

	if !ok {
		return ErrorUnknownCircuit
	}

	return Verify(proofBytes, vkBytes, inputs.PublicInputs())
}
