package operator

import (
	"context"
	"math/big"
	"testing"

	"github.com/privacy-ethereum/amaci-core/babyjubjub/keys"
	"github.com/privacy-ethereum/amaci-core/voter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// castVote builds and publishes a full vote payload for one voter.
func castVote(
	t *testing.T,
	round *Round,
	voterKeypair *keys.Keypair,
	operatorKeypair *keys.Keypair,
	stateIdx uint32,
	options []voter.VoteOption,
) {
	t.Helper()

	payload, err := voter.BuildVotePayload(voterKeypair, stateIdx, operatorKeypair.PubKey, options)
	require.NoError(t, err)
	require.NoError(t, round.PublishMessageBatch(payload))
}

// finishRound drains processing and tallying and publishes the results.
func finishRound(t *testing.T, round *Round) {
	t.Helper()

	require.NoError(t, round.StartProcessPeriod())
	require.NoError(t, round.ProcessAllMessages(context.Background()))
	require.NoError(t, round.StopProcessingPeriod())

	for {
		_, err := round.ProcessTallyBatch(nil)

		if err == ErrorAllLeavesTallied {
			break
		}

		require.NoError(t, err)
	}

	require.NoError(t, round.StopTallyingPeriod(round.EncodedResults(), round.TallySalt()))
	assert.Equal(t, PeriodEnded, round.Period())
}

// Five voters, one voice credit each, three options; one voter changes
// their vote with a later payload, which wins under reverse-order
// processing.
func TestScenarioSimpleTally(t *testing.T) {
	params := Params{
		StateTreeDepth:      2,
		IntStateTreeDepth:   1,
		VoteOptionTreeDepth: 1,
		MessageBatchSize:    5,
		VoiceCredits:        big.NewInt(1),
		Quadratic:           false,
		Anonymous:           false,
	}

	round, operatorKeypair := newTestRound(t, params)

	voters := make([]*keys.Keypair, 5)

	for i := range voters {
		voters[i] = newVoter(t, int64(1000+i))

		index, err := round.SignUp(voters[i].PubKey)
		require.NoError(t, err)
		require.Equal(t, uint64(i), index)
	}

	one := big.NewInt(1)

	castVote(t, round, voters[0], operatorKeypair, 0, []voter.VoteOption{{Index: 0, Weight: one}})
	castVote(t, round, voters[1], operatorKeypair, 1, []voter.VoteOption{{Index: 1, Weight: one}})
	castVote(t, round, voters[2], operatorKeypair, 2, []voter.VoteOption{{Index: 2, Weight: one}})
	castVote(t, round, voters[3], operatorKeypair, 3, []voter.VoteOption{{Index: 0, Weight: one}})
	castVote(t, round, voters[4], operatorKeypair, 4, []voter.VoteOption{{Index: 2, Weight: one}})

	// Voter 1 changes their mind; the later payload is processed first
	// and the earlier one dies on the nonce check.
	castVote(t, round, voters[1], operatorKeypair, 1, []voter.VoteOption{{Index: 2, Weight: one}})

	finishRound(t, round)

	votes, _ := round.Results()

	assert.Equal(t, int64(2), votes[0].Int64())
	assert.Equal(t, int64(0), votes[1].Int64())
	assert.Equal(t, int64(3), votes[2].Int64())
}

// Anonymous quadratic round with a deactivation and key rotation: the old
// key's votes are void, the rotated key votes from a new state index, and
// per voter only the nonce-1 command survives reverse-order processing.
func TestScenarioKeyRotation(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())

	voter1 := newVoter(t, 2001)
	voter2 := newVoter(t, 2002)

	index1, err := round.SignUp(voter1.PubKey)
	require.NoError(t, err)
	require.Equal(t, uint64(0), index1)

	index2, err := round.SignUp(voter2.PubKey)
	require.NoError(t, err)
	require.Equal(t, uint64(1), index2)

	castVote(t, round, voter1, operatorKeypair, 0, []voter.VoteOption{
		{Index: 0, Weight: big.NewInt(5)},
		{Index: 1, Weight: big.NewInt(3)},
	})
	castVote(t, round, voter2, operatorKeypair, 1, []voter.VoteOption{
		{Index: 1, Weight: big.NewInt(4)},
		{Index: 2, Weight: big.NewInt(2)},
	})

	// Voter 1 deactivates and the operator processes the batch.
	deactivate, err := voter.BuildDeactivatePayload(voter1, operatorKeypair.PubKey)
	require.NoError(t, err)
	require.NoError(t, round.PublishDeactivateMessage(deactivate.Ciphertext, deactivate.EncPubKey))

	_, err = round.ProcessDeactivateBatch(4, nil)
	require.NoError(t, err)

	// Voter 1 rotates to a fresh key at a new state index.
	witness, err := voter.BuildAddNewKeyInput(
		voter1, operatorKeypair.PubKey, round.DeactivateLeaves(), round.params.StateTreeDepth)
	require.NoError(t, err)

	rotated := newVoter(t, 2003)

	newIndex, err := round.AddNewKey(
		rotated.PubKey,
		witness.Nullifier,
		[4]*big.Int{witness.D1[0], witness.D1[1], witness.D2[0], witness.D2[1]},
		nil,
	)
	require.NoError(t, err)
	require.Equal(t, uint64(2), newIndex)

	castVote(t, round, rotated, operatorKeypair, 2, []voter.VoteOption{
		{Index: 2, Weight: big.NewInt(6)},
		{Index: 3, Weight: big.NewInt(5)},
	})

	finishRound(t, round)

	votes, spent := round.Results()

	assert.Equal(t, int64(0), votes[0].Int64())
	assert.Equal(t, int64(4), votes[1].Int64())
	assert.Equal(t, int64(6), votes[2].Int64())
	assert.Equal(t, int64(0), votes[3].Int64())
	assert.Equal(t, int64(0), votes[4].Int64())

	assert.Equal(t, int64(16), spent[1].Int64())
	assert.Equal(t, int64(36), spent[2].Int64())
}

// Replaying a nullifier with a different replacement key is rejected.
func TestScenarioNullifierReplay(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())

	voter1 := newVoter(t, 3001)

	_, err := round.SignUp(voter1.PubKey)
	require.NoError(t, err)

	deactivate, err := voter.BuildDeactivatePayload(voter1, operatorKeypair.PubKey)
	require.NoError(t, err)
	require.NoError(t, round.PublishDeactivateMessage(deactivate.Ciphertext, deactivate.EncPubKey))

	_, err = round.ProcessDeactivateBatch(2, nil)
	require.NoError(t, err)

	witness, err := voter.BuildAddNewKeyInput(
		voter1, operatorKeypair.PubKey, round.DeactivateLeaves(), round.params.StateTreeDepth)
	require.NoError(t, err)

	d := [4]*big.Int{witness.D1[0], witness.D1[1], witness.D2[0], witness.D2[1]}

	_, err = round.AddNewKey(newVoter(t, 3002).PubKey, witness.Nullifier, d, nil)
	require.NoError(t, err)

	_, err = round.AddNewKey(newVoter(t, 3003).PubKey, witness.Nullifier, d, nil)
	assert.Equal(t, ErrorNewKeyExists, err)
}

// An attacker who never deactivated cannot build a rotation witness from
// someone else's leaves.
func TestScenarioForeignAddNewKey(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())

	victim := newVoter(t, 4001)

	_, err := round.SignUp(victim.PubKey)
	require.NoError(t, err)

	deactivate, err := voter.BuildDeactivatePayload(victim, operatorKeypair.PubKey)
	require.NoError(t, err)
	require.NoError(t, round.PublishDeactivateMessage(deactivate.Ciphertext, deactivate.EncPubKey))

	_, err = round.ProcessDeactivateBatch(1, nil)
	require.NoError(t, err)

	attacker := newVoter(t, 4002)

	_, err = voter.BuildAddNewKeyInput(
		attacker, operatorKeypair.PubKey, round.DeactivateLeaves(), round.params.StateTreeDepth)
	assert.Equal(t, voter.ErrorNotDeactivated, err)
}

// A depth-2 state tree holds exactly 25 leaves; the 26th sign-up and any
// rotation past the boundary fail with the full-tree error.
func TestScenarioTreeFullBoundary(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())

	var lastVoter *keys.Keypair

	for i := int64(0); i < 25; i++ {
		lastVoter = newVoter(t, 5000+i)

		_, err := round.SignUp(lastVoter.PubKey)
		require.NoError(t, err)
	}

	_, err := round.SignUp(newVoter(t, 5999).PubKey)
	assert.Equal(t, ErrorTreeFull, err)

	// A rotation would occupy slot 25 and must fail the same way.
	deactivate, err := voter.BuildDeactivatePayload(lastVoter, operatorKeypair.PubKey)
	require.NoError(t, err)
	require.NoError(t, round.PublishDeactivateMessage(deactivate.Ciphertext, deactivate.EncPubKey))

	_, err = round.ProcessDeactivateBatch(1, nil)
	require.NoError(t, err)

	witness, err := voter.BuildAddNewKeyInput(
		lastVoter, operatorKeypair.PubKey, round.DeactivateLeaves(), round.params.StateTreeDepth)
	require.NoError(t, err)

	_, err = round.AddNewKey(
		newVoter(t, 6000).PubKey,
		witness.Nullifier,
		[4]*big.Int{witness.D1[0], witness.D1[1], witness.D2[0], witness.D2[1]},
		nil,
	)
	assert.Equal(t, ErrorTreeFull, err)
}

// A deactivated leaf ignores every subsequent message.
func TestScenarioDeactivatedLeafIsSilent(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())

	voter1 := newVoter(t, 7001)

	_, err := round.SignUp(voter1.PubKey)
	require.NoError(t, err)

	deactivate, err := voter.BuildDeactivatePayload(voter1, operatorKeypair.PubKey)
	require.NoError(t, err)
	require.NoError(t, round.PublishDeactivateMessage(deactivate.Ciphertext, deactivate.EncPubKey))

	_, err = round.ProcessDeactivateBatch(1, nil)
	require.NoError(t, err)

	castVote(t, round, voter1, operatorKeypair, 0, []voter.VoteOption{
		{Index: 0, Weight: big.NewInt(3)},
	})

	finishRound(t, round)

	votes, _ := round.Results()

	for _, count := range votes {
		assert.Equal(t, int64(0), count.Int64())
	}
}

// Commitments evolve batch by batch and the final results reproduce the
// published tally commitment.
func TestCommitmentChainAcrossBatches(t *testing.T) {
	params := testParams()
	params.MessageBatchSize = 2

	round, operatorKeypair := newTestRound(t, params)

	for i := int64(0); i < 3; i++ {
		voterKeypair := newVoter(t, 8000+i)

		_, err := round.SignUp(voterKeypair.PubKey)
		require.NoError(t, err)

		castVote(t, round, voterKeypair, operatorKeypair, uint32(i), []voter.VoteOption{
			{Index: uint32(i % 5), Weight: big.NewInt(2)},
		})
	}

	require.NoError(t, round.StartProcessPeriod())

	seen := make(map[string]bool)

	for {
		result, err := round.ProcessNextBatch(nil)

		if err == ErrorAllMessagesProcessed {
			break
		}

		require.NoError(t, err)
		assert.False(t, seen[result.NewStateCommitment.String()])
		seen[result.NewStateCommitment.String()] = true
	}

	require.NoError(t, round.StopProcessingPeriod())

	for {
		_, err := round.ProcessTallyBatch(nil)

		if err == ErrorAllLeavesTallied {
			break
		}

		require.NoError(t, err)
	}

	// Tampered results are rejected; the honest ones end the round.
	tampered := round.EncodedResults()
	tampered[0] = new(big.Int).Add(tampered[0], big.NewInt(1))

	assert.Equal(t, ErrorTallyMismatch, round.StopTallyingPeriod(tampered, round.TallySalt()))
	require.NoError(t, round.StopTallyingPeriod(round.EncodedResults(), round.TallySalt()))
}
