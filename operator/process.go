package operator

import (
	"context"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/privacy-ethereum/amaci-core/babyjubjub/keys"
	"github.com/privacy-ethereum/amaci-core/commitment"
	"github.com/privacy-ethereum/amaci-core/poseidon"
	"github.com/privacy-ethereum/amaci-core/poseidon/cipher"
	"github.com/privacy-ethereum/amaci-core/voter"
)

// ProcessBatchResult reports one processed message batch.
type ProcessBatchResult struct {
	// FirstMessageIndex is the queue index of the earliest-published
	// message in the batch.
	FirstMessageIndex int

	// Applied counts the messages that changed a state leaf; the rest
	// were no-ops.
	Applied int

	// NewStateCommitment is the salted commitment after the batch.
	NewStateCommitment *big.Int

	// Inputs are the circuit public inputs for the batch proof.
	Inputs *commitment.ProcessMessagesInputs
}

// StartProcessPeriod closes the voting window and moves the round to the
// processing period. Messages are drained from the most recently published
// backwards.
func (r *Round) StartProcessPeriod() error {
	if r.period != PeriodFilling {
		return ErrorWrongPeriod
	}

	r.period = PeriodProcessing
	r.processCursor = len(r.messages)
	r.stateSalt = big.NewInt(0)
	r.snapshot = nil

	r.logger.Info().
		Int("messages", len(r.messages)).
		Str("period", r.period.String()).
		Msg("period transition")

	return nil
}

// applyMessage attempts to apply one message to the state. Every failed
// predicate — undecryptable ciphertext, out-of-range index, deactivated
// leaf, nonce mismatch, bad signature, option overflow, insufficient
// balance — makes the message a silent no-op; only the aggregate
// commitment is observable externally.
func (r *Round) applyMessage(message *publishedMessage) (bool, error) {
	shared := r.operator.SharedKey(message.encPub)

	plaintext, err := cipher.Decrypt(
		message.ciphertext,
		[2]*big.Int{shared.X, shared.Y},
		0,
		voter.MessageLength,
	)

	if err != nil {
		return false, nil
	}

	command := voter.UnpackCommand(plaintext[0])

	if uint64(command.StateIdx) >= uint64(len(r.leaves)) {
		return false, nil
	}

	if r.activeValues[command.StateIdx].Sign() != 0 {
		return false, nil
	}

	leaf := r.leaves[command.StateIdx]

	if command.Nonce != leaf.Nonce+1 {
		return false, nil
	}

	digest, err := poseidon.Hash3(plaintext[0], plaintext[1], plaintext[2])

	if err != nil {
		return false, nil
	}

	sig := &babyjub.Signature{
		R8: &babyjub.Point{X: plaintext[3], Y: plaintext[4]},
		S:  plaintext[5],
	}

	if keys.Verify(digest, sig, leaf.PubKey) != nil {
		return false, nil
	}

	if uint64(command.VoteOptionIdx) >= r.params.maxVoteOptions() {
		return false, nil
	}

	weight := command.NewVoteWeight
	cost := new(big.Int).Set(weight)
	previousCost := leaf.voteWeight(command.VoteOptionIdx)

	if r.params.Quadratic {
		cost.Mul(weight, weight)
		previousCost = new(big.Int).Mul(previousCost, previousCost)
	}

	if cost.Cmp(leaf.Balance) > 0 {
		return false, nil
	}

	// The (0, 0) replacement key marks the final command of a chain: the
	// leaf key stays unchanged. Any other value rotates the leaf key.
	replaceKey := plaintext[1].Sign() != 0 || plaintext[2].Sign() != 0

	if replaceKey {
		newPub := &babyjub.PublicKey{X: plaintext[1], Y: plaintext[2]}

		if checkSubGroup(newPub) != nil {
			return false, nil
		}

		leaf.PubKey = newPub
	}

	if err := leaf.setVote(command.VoteOptionIdx, weight, r.params.VoteOptionTreeDepth); err != nil {
		return false, err
	}

	leaf.Balance.Sub(leaf.Balance, cost.Sub(cost, previousCost))
	leaf.Nonce = command.Nonce

	if err := r.storeLeaf(uint64(command.StateIdx)); err != nil {
		return false, err
	}

	return true, nil
}

// ProcessNextBatch processes the next batch of messages in strictly
// reverse publication order and returns the new state commitment.
//
// The pre-batch state is retained until the next batch starts, so a
// rejected proof submission can rewind with RollbackBatch and retry the
// identical batch.
func (r *Round) ProcessNextBatch(proof []byte) (*ProcessBatchResult, error) {
	if r.period != PeriodProcessing {
		return nil, ErrorWrongPeriod
	}

	if r.processCursor == 0 {
		return nil, ErrorAllMessagesProcessed
	}

	r.takeSnapshot()

	end := r.processCursor
	start := max(0, end-r.params.MessageBatchSize)
	applied := 0

	for i := end - 1; i >= start; i-- {
		ok, err := r.applyMessage(r.messages[i])

		if err != nil {
			return nil, err
		}

		if ok {
			applied++
		}
	}

	r.processCursor = start

	batchDigest, err := poseidon.Hash2(big.NewInt(int64(start)), r.stateTree.Root())

	if err != nil {
		return nil, err
	}

	newSalt, err := commitment.ChainSalt(r.stateSalt, batchDigest)

	if err != nil {
		return nil, err
	}

	newCommitment, err := commitment.StateCommitment(r.stateTree.Root(), newSalt)

	if err != nil {
		return nil, err
	}

	r.stateSalt = newSalt
	r.stateCommitment = newCommitment

	inputs := &commitment.ProcessMessagesInputs{NewStateCommitment: newCommitment}

	if r.keySet != nil {
		if err := r.keySet.VerifyCircuit(inputs, proof); err != nil {
			if restoreErr := r.restoreSnapshot(); restoreErr != nil {
				return nil, restoreErr
			}

			return nil, ErrorProofVerificationFailed
		}
	}

	r.logger.Info().
		Int("first_message", start).
		Int("applied", applied).
		Msg("message batch processed")

	return &ProcessBatchResult{
		FirstMessageIndex:  start,
		Applied:            applied,
		NewStateCommitment: new(big.Int).Set(newCommitment),
		Inputs:             inputs,
	}, nil
}

// RollbackBatch rewinds the last processed batch so it can be retried, for
// example after a rejected proof submission. Only the most recent batch can
// be rolled back.
func (r *Round) RollbackBatch() error {
	return r.restoreSnapshot()
}

// ProcessAllMessages drains the message queue batch by batch. The context
// is checked between batches, so a cancelled proof-generation task leaves
// the round at the last completed batch boundary.
func (r *Round) ProcessAllMessages(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := r.ProcessNextBatch(nil); err != nil {
			if err == ErrorAllMessagesProcessed {
				return nil
			}

			return err
		}
	}
}

// StopProcessingPeriod moves the round to the tallying period once every
// message batch is processed.
func (r *Round) StopProcessingPeriod() error {
	if r.period != PeriodProcessing {
		return ErrorWrongPeriod
	}

	if r.processCursor != 0 {
		return ErrorProcessingIncomplete
	}

	r.period = PeriodTallying
	r.snapshot = nil
	r.tallyCursor = 0
	r.tallySalt = big.NewInt(0)

	options := r.params.maxVoteOptions()
	r.results = make([]*big.Int, options)
	r.spent = make([]*big.Int, options)

	for i := range r.results {
		r.results[i] = big.NewInt(0)
		r.spent[i] = big.NewInt(0)
	}

	r.logger.Info().Str("period", r.period.String()).Msg("period transition")

	return nil
}
