// Package voter implements the client side of the voting protocol: packed
// command encoding, encrypted vote and deactivate payload construction, and
// the key-rotation circuit input builder.
package voter

import (
	"crypto/rand"
	"math/big"
)

// Command is the unpacked form of the 192-bit command layout carried in a
// single field element:
//
//	bits   0..31   nonce
//	bits  32..63   state index
//	bits  64..95   vote option index
//	bits  96..191  vote weight
//	bits 192..247  random salt
//
// A deactivate command is all-zero except for the salt.
type Command struct {
	Nonce         uint32
	StateIdx      uint32
	VoteOptionIdx uint32
	NewVoteWeight *big.Int
	Salt          *big.Int
}

var (
	weightLimit = new(big.Int).Lsh(big.NewInt(1), WeightBits)
	saltLimit   = new(big.Int).Lsh(big.NewInt(1), SaltBits)
	mask32      = new(big.Int).Lsh(big.NewInt(1), 32)
)

// Pack serialises the command into a single field element.
//
// Returns ErrorPackOverflow when the weight or salt exceeds its bit
// allocation; the packed value always stays below the field modulus.
func (c *Command) Pack() (*big.Int, error) {
	weight := c.NewVoteWeight

	if weight == nil {
		weight = big.NewInt(0)
	}

	if weight.Sign() < 0 || weight.Cmp(weightLimit) >= 0 {
		return nil, ErrorPackOverflow
	}

	salt := c.Salt

	if salt == nil {
		salt = big.NewInt(0)
	}

	if salt.Sign() < 0 || salt.Cmp(saltLimit) >= 0 {
		return nil, ErrorPackOverflow
	}

	packed := new(big.Int).Lsh(salt, saltShift)
	packed.Add(packed, new(big.Int).Lsh(weight, weightShift))
	packed.Add(packed, new(big.Int).Lsh(new(big.Int).SetUint64(uint64(c.VoteOptionIdx)), 64))
	packed.Add(packed, new(big.Int).Lsh(new(big.Int).SetUint64(uint64(c.StateIdx)), 32))
	packed.Add(packed, new(big.Int).SetUint64(uint64(c.Nonce)))

	return packed, nil
}

// UnpackCommand deserialises a packed command field element.
func UnpackCommand(packed *big.Int) *Command {
	remainder := new(big.Int).Set(packed)

	nonce := new(big.Int)
	remainder.DivMod(remainder, mask32, nonce)

	stateIdx := new(big.Int)
	remainder.DivMod(remainder, mask32, stateIdx)

	voteOptionIdx := new(big.Int)
	remainder.DivMod(remainder, mask32, voteOptionIdx)

	weight := new(big.Int)
	remainder.DivMod(remainder, weightLimit, weight)

	return &Command{
		Nonce:         uint32(nonce.Uint64()),
		StateIdx:      uint32(stateIdx.Uint64()),
		VoteOptionIdx: uint32(voteOptionIdx.Uint64()),
		NewVoteWeight: weight,
		Salt:          remainder,
	}
}

// RandomSalt samples a fresh 56-bit salt.
func RandomSalt() (*big.Int, error) {
	return rand.Int(rand.Reader, saltLimit)
}
