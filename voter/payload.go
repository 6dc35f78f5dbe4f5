package voter

import (
	"math/big"
	"sort"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/privacy-ethereum/amaci-core/babyjubjub/keys"
	"github.com/privacy-ethereum/amaci-core/poseidon"
	"github.com/privacy-ethereum/amaci-core/poseidon/cipher"
)

// VoteOption is one entry of a vote plan: the option index and the new
// weight to place on it.
type VoteOption struct {
	Index  uint32
	Weight *big.Int
}

// MessagePayload is one encrypted message ready for publication: the
// 8-element ciphertext and the single-use public key the operator needs for
// the ECDH decryption.
type MessagePayload struct {
	Ciphertext []*big.Int
	EncPubKey  *babyjub.PublicKey
}

// buildMessage signs and encrypts one command under a given encryption
// keypair. The plaintext layout is [packed, newPubX, newPubY, R8x, R8y, S, 0].
func buildMessage(
	voter *keys.Keypair,
	encKeypair *keys.Keypair,
	operatorPub *babyjub.PublicKey,
	command *Command,
	newPub *babyjub.Point,
) (*MessagePayload, error) {
	packed, err := command.Pack()

	if err != nil {
		return nil, err
	}

	digest, err := poseidon.Hash3(packed, newPub.X, newPub.Y)

	if err != nil {
		return nil, err
	}

	sig, err := voter.Sign(digest)

	if err != nil {
		return nil, err
	}

	shared := encKeypair.SharedKey(operatorPub)

	plaintext := []*big.Int{
		packed,
		newPub.X,
		newPub.Y,
		sig.R8.X,
		sig.R8.Y,
		sig.S,
		big.NewInt(0),
	}

	ciphertext, err := cipher.Encrypt(plaintext, [2]*big.Int{shared.X, shared.Y}, 0)

	if err != nil {
		return nil, err
	}

	return &MessagePayload{Ciphertext: ciphertext, EncPubKey: encKeypair.PubKey}, nil
}

// BuildVotePayload builds the encrypted message sequence for a vote plan.
//
// Duplicate option indices are rejected, zero-weight options are dropped,
// and the remaining options are sorted ascending by index. Messages are
// produced from the highest nonce down to nonce 1 — each under a fresh
// single-use encryption keypair — and returned in ascending-nonce
// publication order. Under reverse-order processing every message with
// nonce above 1 is discarded by the nonce check, so the nonce-1 command
// (the lowest surviving option index) is the one that takes effect; the
// higher-nonce slots are sacrificial. The highest-nonce message carries the
// (0, 0) marker instead of a replacement key, the rest re-assert the
// voter's current key.
func BuildVotePayload(
	voter *keys.Keypair,
	stateIdx uint32,
	operatorPub *babyjub.PublicKey,
	options []VoteOption,
) ([]*MessagePayload, error) {
	seen := make(map[uint32]bool, len(options))

	for _, option := range options {
		if seen[option.Index] {
			return nil, ErrorDuplicateOption
		}

		seen[option.Index] = true
	}

	plan := make([]VoteOption, 0, len(options))

	for _, option := range options {
		if option.Weight != nil && option.Weight.Sign() > 0 {
			plan = append(plan, option)
		}
	}

	if len(plan) == 0 {
		return nil, ErrorEmptyVotePlan
	}

	sort.Slice(plan, func(i, j int) bool { return plan[i].Index < plan[j].Index })

	payload := make([]*MessagePayload, 0, len(plan))

	for i := len(plan) - 1; i >= 0; i-- {
		encKeypair, err := keys.NewRandomKeypair()

		if err != nil {
			return nil, err
		}

		salt, err := RandomSalt()

		if err != nil {
			return nil, err
		}

		command := &Command{
			Nonce:         uint32(i + 1),
			StateIdx:      stateIdx,
			VoteOptionIdx: plan[i].Index,
			NewVoteWeight: plan[i].Weight,
			Salt:          salt,
		}

		newPub := &babyjub.Point{X: big.NewInt(0), Y: big.NewInt(0)}

		if i != len(plan)-1 {
			newPub = (*babyjub.Point)(voter.PubKey)
		}

		message, err := buildMessage(voter, encKeypair, operatorPub, command, newPub)

		if err != nil {
			return nil, err
		}

		payload = append(payload, message)
	}

	// Publication order is ascending nonce; the highest nonce is published
	// last and processed first.
	for i, j := 0, len(payload)-1; i < j; i, j = i+1, j-1 {
		payload[i], payload[j] = payload[j], payload[i]
	}

	return payload, nil
}

// BuildDeactivatePayload builds the single deactivate message: an all-zero
// command carrying only a fresh salt, signed with the voter's identity key
// and encrypted under the voter's identity ECDH with the operator, so the
// operator can bind the resulting deactivate leaf to the voter's shared-key
// hash.
func BuildDeactivatePayload(
	voter *keys.Keypair,
	operatorPub *babyjub.PublicKey,
) (*MessagePayload, error) {
	salt, err := RandomSalt()

	if err != nil {
		return nil, err
	}

	command := &Command{Nonce: 0, StateIdx: 0, VoteOptionIdx: 0, Salt: salt}
	newPub := &babyjub.Point{X: big.NewInt(0), Y: big.NewInt(0)}

	return buildMessage(voter, voter, operatorPub, command, newPub)
}
