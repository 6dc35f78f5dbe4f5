// Package cipher implements authenticated encryption over the BN254 scalar
// field using the Poseidon permutation in duplex mode.
//
// A ciphertext carries one field element per plaintext slot plus a trailing
// authentication tag, so encrypting an n-element plaintext yields n+1
// elements. The construction absorbs the plaintext in three-element chunks
// into a width-4 Poseidon state keyed with the ECDH shared key and the
// nonce; zero padding of the final chunk stays internal and is never
// emitted on the wire.
package cipher

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/constants"
	iden3utils "github.com/iden3/go-iden3-crypto/utils"
	"github.com/privacy-ethereum/amaci-core/poseidon"
)

// chunkSize is the permutation rate: the number of plaintext elements
// absorbed between permutation calls.
const chunkSize = 3

// two128 separates the plaintext length from the nonce in the initial state.
var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// initialState returns the keyed duplex state [0, K0, K1, nonce + len·2^128].
func initialState(key [2]*big.Int, nonce uint64, length int) []*big.Int {
	domain := new(big.Int).Mul(big.NewInt(int64(length)), two128)
	domain.Add(domain, new(big.Int).SetUint64(nonce))
	domain.Mod(domain, constants.Q)

	return []*big.Int{
		big.NewInt(0),
		new(big.Int).Set(key[0]),
		new(big.Int).Set(key[1]),
		domain,
	}
}

// Encrypt encrypts plaintext under the two-element shared key and nonce.
//
// The returned ciphertext has len(plaintext)+1 elements; the final element
// is the authentication tag. Returns an error if the plaintext is empty or
// any plaintext or key element is not a reduced field element.
func Encrypt(plaintext []*big.Int, key [2]*big.Int, nonce uint64) ([]*big.Int, error) {
	if len(plaintext) == 0 {
		return nil, ErrorCipherLengthMismatch
	}

	if !iden3utils.CheckBigIntArrayInField(plaintext) ||
		!iden3utils.CheckBigIntArrayInField(key[:]) {
		return nil, ErrorCipherInvalidInput
	}

	state := initialState(key, nonce, len(plaintext))
	ciphertext := make([]*big.Int, 0, len(plaintext)+1)

	for offset := 0; offset < len(plaintext); offset += chunkSize {
		var err error

		state, err = poseidon.Permute(state)

		if err != nil {
			return nil, err
		}

		for j := 0; j < chunkSize; j++ {
			position := offset + j

			if position >= len(plaintext) {
				break
			}

			absorbed := new(big.Int).Add(state[j+1], plaintext[position])
			absorbed.Mod(absorbed, constants.Q)

			state[j+1] = absorbed
			ciphertext = append(ciphertext, new(big.Int).Set(absorbed))
		}
	}

	state, err := poseidon.Permute(state)

	if err != nil {
		return nil, err
	}

	return append(ciphertext, new(big.Int).Set(state[1])), nil
}

// Decrypt decrypts a ciphertext produced by Encrypt and verifies its
// authentication tag.
//
// The ciphertext must have exactly length+1 elements. Returns
// ErrorCipherLengthMismatch on a malformed shape and
// ErrorCipherAuthTagMismatch when the tag does not verify under the given
// key and nonce, in which case no plaintext is returned.
func Decrypt(ciphertext []*big.Int, key [2]*big.Int, nonce uint64, length int) ([]*big.Int, error) {
	if length <= 0 || len(ciphertext) != length+1 {
		return nil, ErrorCipherLengthMismatch
	}

	if !iden3utils.CheckBigIntArrayInField(ciphertext) ||
		!iden3utils.CheckBigIntArrayInField(key[:]) {
		return nil, ErrorCipherInvalidInput
	}

	state := initialState(key, nonce, length)
	plaintext := make([]*big.Int, 0, length)

	for offset := 0; offset < length; offset += chunkSize {
		var err error

		state, err = poseidon.Permute(state)

		if err != nil {
			return nil, err
		}

		for j := 0; j < chunkSize; j++ {
			position := offset + j

			if position >= length {
				break
			}

			recovered := new(big.Int).Sub(ciphertext[position], state[j+1])
			recovered.Mod(recovered, constants.Q)

			plaintext = append(plaintext, recovered)
			state[j+1] = new(big.Int).Set(ciphertext[position])
		}
	}

	state, err := poseidon.Permute(state)

	if err != nil {
		return nil, err
	}

	if state[1].Cmp(ciphertext[length]) != 0 {
		return nil, ErrorCipherAuthTagMismatch
	}

	return plaintext, nil
}
