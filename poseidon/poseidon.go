// Package poseidon exposes the Poseidon hash over the BN254 scalar field in
// the fixed-arity shapes the voting protocol consumes, together with the raw
// permutation the authenticated cipher is built on.
//
// All outputs are bit-identical to the circomlib Poseidon witness: the
// variable-arity hash uses width t = len(inputs)+1, zero capacity, initial
// state [0, inputs...], and returns state[0] after the permutation.
package poseidon

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/iden3/go-iden3-crypto/utils"
)

// Hash computes the variable-arity Poseidon hash of 1..MaxInputs field
// elements.
//
// Returns an error if the arity is out of range or any input is not a
// reduced field element.
func Hash(inputs []*big.Int) (*big.Int, error) {
	if len(inputs) == 0 || len(inputs) > MaxInputs {
		return nil, ErrorPoseidonInvalidInputLength
	}

	if !utils.CheckBigIntArrayInField(inputs) {
		return nil, ErrorPoseidonInputNotInField
	}

	return poseidon.Hash(inputs)
}

// Hash2 computes the two-input Poseidon hash used for commitments, nullifiers
// and binary tree nodes.
func Hash2(a, b *big.Int) (*big.Int, error) {
	return Hash([]*big.Int{a, b})
}

// Hash3 computes the three-input Poseidon hash used for command digests.
func Hash3(a, b, c *big.Int) (*big.Int, error) {
	return Hash([]*big.Int{a, b, c})
}

// Hash5 computes the five-input Poseidon hash used for quinary tree nodes,
// state-leaf interiors and deactivate leaves.
func Hash5(a, b, c, d, e *big.Int) (*big.Int, error) {
	return Hash([]*big.Int{a, b, c, d, e})
}

// Permute applies the Poseidon permutation to a full state and returns the
// complete output state.
//
// The state width must be at least 2 and at most MaxInputs+1; the cipher uses
// CipherWidth. Element 0 is the capacity slot.
func Permute(state []*big.Int) ([]*big.Int, error) {
	if len(state) < 2 || len(state) > MaxInputs+1 {
		return nil, ErrorPoseidonInvalidInputLength
	}

	if !utils.CheckBigIntArrayInField(state) {
		return nil, ErrorPoseidonInputNotInField
	}

	return poseidon.HashWithStateEx(state[1:], state[0], len(state))
}
