package operator

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	iden3utils "github.com/iden3/go-iden3-crypto/utils"
	"github.com/privacy-ethereum/amaci-core/babyjubjub/elgamal"
	"github.com/privacy-ethereum/amaci-core/babyjubjub/keys"
	"github.com/privacy-ethereum/amaci-core/commitment"
	"github.com/privacy-ethereum/amaci-core/poseidon"
	"github.com/privacy-ethereum/amaci-core/poseidon/cipher"
	"github.com/privacy-ethereum/amaci-core/voter"
)

// DeactivateBatchResult reports one processed deactivate batch.
type DeactivateBatchResult struct {
	// Leaves are the deactivate leaves appended this batch, padding
	// included, each as five field elements.
	Leaves [][]*big.Int

	// NewRoot is the deactivate tree root after the batch.
	NewRoot *big.Int

	// NewCommitment is the deactivate commitment after the batch.
	NewCommitment *big.Int

	// Inputs are the circuit public inputs for the batch proof.
	Inputs *commitment.ProcessDeactivateInputs
}

// deactivateLeafHash hashes a five-element deactivate leaf.
func deactivateLeafHash(leaf []*big.Int) (*big.Int, error) {
	return poseidon.Hash5(leaf[0], leaf[1], leaf[2], leaf[3], leaf[4])
}

// findLeafByPubKey returns the index of the active state leaf currently
// holding pub, or −1.
func (r *Round) findLeafByPubKey(pub *babyjub.PublicKey) int {
	for i, leaf := range r.leaves {
		if r.activeValues[i].Sign() != 0 {
			continue
		}

		if leaf.PubKey.X.Cmp(pub.X) == 0 && leaf.PubKey.Y.Cmp(pub.Y) == 0 {
			return i
		}
	}

	return -1
}

// examineDeactivateMessage decrypts and validates one deactivate message,
// returning the target leaf index for a valid request or −1 when the
// message must be treated as a no-op.
func (r *Round) examineDeactivateMessage(message *publishedMessage) int {
	shared := r.operator.SharedKey(message.encPub)

	plaintext, err := cipher.Decrypt(
		message.ciphertext,
		[2]*big.Int{shared.X, shared.Y},
		0,
		voter.MessageLength,
	)

	if err != nil {
		return -1
	}

	command := voter.UnpackCommand(plaintext[0])

	if command.Nonce != 0 {
		return -1
	}

	// The deactivate command carries no state index; the target is the
	// leaf currently holding the message's identity key.
	target := r.findLeafByPubKey(message.encPub)

	if target < 0 {
		return -1
	}

	digest, err := poseidon.Hash3(plaintext[0], plaintext[1], plaintext[2])

	if err != nil {
		return -1
	}

	sig := &babyjub.Signature{
		R8: &babyjub.Point{X: plaintext[3], Y: plaintext[4]},
		S:  plaintext[5],
	}

	if keys.Verify(digest, sig, r.leaves[target].PubKey) != nil {
		return -1
	}

	return target
}

// ProcessDeactivateBatch consumes up to batchSize queued deactivate
// messages and appends exactly batchSize deactivate leaves, padding short
// batches with zero leaves.
//
// A valid request yields a fresh odd-parity ciphertext bound to the
// sender's shared-key hash and marks the target leaf in the active-state
// tree; an invalid one yields an even-parity ciphertext and changes no
// leaf. When a verifying key is configured the submitted proof gates the
// batch: on rejection the round state is rewound and the batch can be
// retried.
func (r *Round) ProcessDeactivateBatch(batchSize int, proof []byte) (*DeactivateBatchResult, error) {
	if !r.params.Anonymous {
		return nil, ErrorRoundNotAnonymous
	}

	if r.period != PeriodFilling {
		return nil, ErrorWrongPeriod
	}

	if batchSize <= 0 {
		return nil, ErrorInvalidBatchSize
	}

	pending := len(r.deactivateQueue) - r.deactivateProcessed

	if pending <= 0 {
		return nil, ErrorNoPendingDeactivates
	}

	if uint64(len(r.deactivateLeaves)+batchSize) > r.deactivateTree.Capacity() {
		return nil, ErrorTreeFull
	}

	r.takeSnapshot()

	consumed := min(batchSize, pending)
	appended := make([][]*big.Int, 0, batchSize)

	for slot := 0; slot < batchSize; slot++ {
		var fields []*big.Int

		if slot < consumed {
			message := r.deactivateQueue[r.deactivateProcessed+slot]
			target := r.examineDeactivateMessage(message)

			shared := r.operator.SharedKey(message.encPub)

			sharedKeyHash, err := poseidon.Hash2(shared.X, shared.Y)

			if err != nil {
				return nil, err
			}

			ct, err := elgamal.EncryptOdevityRand(target >= 0, r.operator.PubKey)

			if err != nil {
				return nil, err
			}

			fields = []*big.Int{ct.C1.X, ct.C1.Y, ct.C2.X, ct.C2.Y, sharedKeyHash}

			if target >= 0 {
				leafHash, err := deactivateLeafHash(fields)

				if err != nil {
					return nil, err
				}

				r.activeValues[target] = leafHash

				if err := r.activeTree.UpdateLeaf(uint64(target), leafHash); err != nil {
					return nil, err
				}

				r.logger.Info().Int("state_index", target).Msg("leaf deactivated")
			}
		} else {
			// Padding slot: an all-zero leaf that marks no state leaf.
			fields = []*big.Int{
				big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0),
			}
		}

		index := uint64(len(r.deactivateLeaves))

		leafHash, err := deactivateLeafHash(fields)

		if err != nil {
			return nil, err
		}

		if err := r.deactivateTree.UpdateLeaf(index, leafHash); err != nil {
			return nil, err
		}

		r.deactivateLeaves = append(r.deactivateLeaves, fields)
		appended = append(appended, copyScalars(fields))
	}

	r.deactivateProcessed += consumed
	r.deactivateRoot = r.deactivateTree.Root()

	newCommitment, err := poseidon.Hash2(
		r.deactivateRoot,
		new(big.Int).SetUint64(uint64(len(r.deactivateLeaves))),
	)

	if err != nil {
		return nil, err
	}

	r.deactivateCommit = newCommitment

	inputs := &commitment.ProcessDeactivateInputs{
		NewDeactivateCommitment: newCommitment,
		NewDeactivateRoot:       r.deactivateRoot,
		BatchSize:               big.NewInt(int64(batchSize)),
	}

	if r.keySet != nil {
		if err := r.keySet.VerifyCircuit(inputs, proof); err != nil {
			if restoreErr := r.restoreSnapshot(); restoreErr != nil {
				return nil, restoreErr
			}

			return nil, ErrorProofVerificationFailed
		}
	}

	r.logger.Info().
		Int("consumed", consumed).
		Int("batch_size", batchSize).
		Msg("deactivate batch processed")

	return &DeactivateBatchResult{
		Leaves:        appended,
		NewRoot:       new(big.Int).Set(r.deactivateRoot),
		NewCommitment: new(big.Int).Set(newCommitment),
		Inputs:        inputs,
	}, nil
}

// AddNewKey registers a rotated key at the next free state index.
//
// The nullifier must be fresh — a replay is rejected with
// ErrorNewKeyExists — and the rerandomised ciphertext d is bound into the
// new leaf. When a verifying key is configured, the submitted proof is
// checked against the input hash of the current deactivate root.
func (r *Round) AddNewKey(newPub *babyjub.PublicKey, nullifier *big.Int, d [4]*big.Int, proof []byte) (uint64, error) {
	if !r.params.Anonymous {
		return 0, ErrorRoundNotAnonymous
	}

	if r.period != PeriodFilling {
		return 0, ErrorWrongPeriod
	}

	if err := checkSubGroup(newPub); err != nil {
		return 0, err
	}

	if nullifier == nil || !iden3utils.CheckBigIntInField(nullifier) {
		return 0, ErrorMalformedMessage
	}

	if r.nullifiers[nullifier.String()] {
		return 0, ErrorNewKeyExists
	}

	if uint64(len(r.leaves)) >= r.stateTree.Capacity() {
		return 0, ErrorTreeFull
	}

	if r.keySet != nil {
		coordPubHash, err := poseidon.Hash2(r.operator.PubKey.X, r.operator.PubKey.Y)

		if err != nil {
			return 0, err
		}

		inputHash, err := commitment.InputHash(
			r.deactivateRoot, coordPubHash, nullifier, d[0], d[1], d[2], d[3],
		)

		if err != nil {
			return 0, err
		}

		inputs := &commitment.AddNewKeyInputs{InputHash: inputHash}

		if err := r.keySet.VerifyCircuit(inputs, proof); err != nil {
			return 0, ErrorProofVerificationFailed
		}
	}

	r.nullifiers[nullifier.String()] = true

	index := uint64(len(r.leaves))
	r.leaves = append(r.leaves, newStateLeaf(newPub, r.params.VoiceCredits, d))
	r.activeValues = append(r.activeValues, big.NewInt(0))

	if err := r.storeLeaf(index); err != nil {
		r.leaves = r.leaves[:index]
		r.activeValues = r.activeValues[:index]

		return 0, err
	}

	r.logger.Info().Uint64("state_index", index).Msg("rotated key registered")

	return index, nil
}
