// Package commitment implements the commitment scheme binding operator
// state to external verifiers: salted Poseidon commitments over tree roots,
// the per-batch salt chain, and the sha256 digest that collapses a circuit's
// public inputs into a single field element.
package commitment

import (
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	iden3utils "github.com/iden3/go-iden3-crypto/utils"
	"github.com/privacy-ethereum/amaci-core/poseidon"
)

// StateCommitment commits to a state-tree root under a salt:
// poseidon2(root, salt).
func StateCommitment(root, salt *big.Int) (*big.Int, error) {
	return poseidon.Hash2(root, salt)
}

// TallyCommitment commits to a results-tree root under a salt:
// poseidon2(resultsRoot, salt).
func TallyCommitment(resultsRoot, salt *big.Int) (*big.Int, error) {
	return poseidon.Hash2(resultsRoot, salt)
}

// ChainSalt evolves a running salt with a batch digest:
// poseidon2(previousSalt, batchDigest).
func ChainSalt(previous, batchDigest *big.Int) (*big.Int, error) {
	return poseidon.Hash2(previous, batchDigest)
}

// InputHash collapses a sequence of field elements into one:
// sha256 over the big-endian 32-byte encoding of each element, reduced
// modulo the SNARK field. This ties a circuit's public inputs to a single
// Groth16-friendly field element.
func InputHash(elements ...*big.Int) (*big.Int, error) {
	hasher := sha256.New()

	for _, element := range elements {
		if element == nil || !iden3utils.CheckBigIntInField(element) {
			return nil, ErrorCommitmentInvalidInput
		}

		var serialised fr.Element

		serialised.SetBigInt(element)
		bytes := serialised.Bytes()
		hasher.Write(bytes[:])
	}

	digest := new(big.Int).SetBytes(hasher.Sum(nil))

	return digest.Mod(digest, fr.Modulus()), nil
}
