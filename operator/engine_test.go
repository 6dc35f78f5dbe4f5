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

func testParams() Params {
	return Params{
		StateTreeDepth:      2,
		IntStateTreeDepth:   1,
		VoteOptionTreeDepth: 1,
		MessageBatchSize:    5,
		VoiceCredits:        big.NewInt(100),
		Quadratic:           true,
		Anonymous:           true,
	}
}

func newTestRound(t *testing.T, params Params) (*Round, *keys.Keypair) {
	t.Helper()

	operatorKeypair, err := keys.NewKeypair(big.NewInt(987654321))
	require.NoError(t, err)

	round, err := NewRound(operatorKeypair, params)
	require.NoError(t, err)

	return round, operatorKeypair
}

func newVoter(t *testing.T, seed int64) *keys.Keypair {
	t.Helper()

	keypair, err := keys.NewKeypair(big.NewInt(seed))
	require.NoError(t, err)

	return keypair
}

func TestNewRoundValidatesParams(t *testing.T) {
	operatorKeypair := newVoter(t, 1)

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{name: "zero state depth", mutate: func(p *Params) { p.StateTreeDepth = 0 }},
		{name: "zero batch size", mutate: func(p *Params) { p.MessageBatchSize = 0 }},
		{name: "nil credits", mutate: func(p *Params) { p.VoiceCredits = nil }},
		{name: "intermediate deeper than state", mutate: func(p *Params) { p.IntStateTreeDepth = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams()
			tt.mutate(&params)

			_, err := NewRound(operatorKeypair, params)
			assert.Equal(t, ErrorInvalidParams, err)
		})
	}
}

func TestSignUpAssignsSequentialIndices(t *testing.T) {
	round, _ := newTestRound(t, testParams())

	for i := int64(0); i < 3; i++ {
		index, err := round.SignUp(newVoter(t, 100+i).PubKey)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), index)
	}

	assert.Equal(t, uint64(3), round.NumSignUps())
}

func TestSignUpWrongPeriod(t *testing.T) {
	round, _ := newTestRound(t, testParams())

	require.NoError(t, round.StartProcessPeriod())

	_, err := round.SignUp(newVoter(t, 5).PubKey)
	assert.Equal(t, ErrorWrongPeriod, err)
}

func TestPublishMessageRejectsReusedEncPub(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())
	voterKeypair := newVoter(t, 7)

	_, err := round.SignUp(voterKeypair.PubKey)
	require.NoError(t, err)

	payload, err := voter.BuildVotePayload(voterKeypair, 0, operatorKeypair.PubKey, []voter.VoteOption{
		{Index: 0, Weight: big.NewInt(1)},
	})
	require.NoError(t, err)

	require.NoError(t, round.PublishMessage(payload[0].Ciphertext, payload[0].EncPubKey))

	err = round.PublishMessage(payload[0].Ciphertext, payload[0].EncPubKey)
	assert.Equal(t, ErrorEncPubReused, err)
}

func TestPublishMessageRejectsMalformedCiphertext(t *testing.T) {
	round, _ := newTestRound(t, testParams())

	err := round.PublishMessage([]*big.Int{big.NewInt(1)}, newVoter(t, 8).PubKey)
	assert.Equal(t, ErrorMalformedMessage, err)
}

func TestProcessBatchRollbackRestoresCommitment(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())
	voterKeypair := newVoter(t, 11)

	_, err := round.SignUp(voterKeypair.PubKey)
	require.NoError(t, err)

	payload, err := voter.BuildVotePayload(voterKeypair, 0, operatorKeypair.PubKey, []voter.VoteOption{
		{Index: 1, Weight: big.NewInt(4)},
	})
	require.NoError(t, err)
	require.NoError(t, round.PublishMessageBatch(payload))

	require.NoError(t, round.StartProcessPeriod())

	first, err := round.ProcessNextBatch(nil)
	require.NoError(t, err)

	require.NoError(t, round.RollbackBatch())

	// The same batch re-runs from scratch and reproduces the commitment.
	second, err := round.ProcessNextBatch(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, first.NewStateCommitment.Cmp(second.NewStateCommitment))
	assert.Equal(t, first.Applied, second.Applied)

	assert.Equal(t, ErrorNoSnapshot, func() error {
		require.NoError(t, round.RollbackBatch())

		return round.RollbackBatch()
	}())
}

func TestProcessAllMessagesHonoursCancellation(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())
	voterKeypair := newVoter(t, 13)

	_, err := round.SignUp(voterKeypair.PubKey)
	require.NoError(t, err)

	payload, err := voter.BuildVotePayload(voterKeypair, 0, operatorKeypair.PubKey, []voter.VoteOption{
		{Index: 0, Weight: big.NewInt(2)},
	})
	require.NoError(t, err)
	require.NoError(t, round.PublishMessageBatch(payload))

	require.NoError(t, round.StartProcessPeriod())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, context.Canceled, round.ProcessAllMessages(cancelled))

	// The round is intact and finishes under a live context.
	require.NoError(t, round.ProcessAllMessages(context.Background()))
	require.NoError(t, round.StopProcessingPeriod())
}

func TestStopProcessingRequiresDrainedQueue(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())
	voterKeypair := newVoter(t, 17)

	_, err := round.SignUp(voterKeypair.PubKey)
	require.NoError(t, err)

	payload, err := voter.BuildVotePayload(voterKeypair, 0, operatorKeypair.PubKey, []voter.VoteOption{
		{Index: 0, Weight: big.NewInt(1)},
	})
	require.NoError(t, err)
	require.NoError(t, round.PublishMessageBatch(payload))

	require.NoError(t, round.StartProcessPeriod())
	assert.Equal(t, ErrorProcessingIncomplete, round.StopProcessingPeriod())
}

func TestDeactivateBatchPadsToSize(t *testing.T) {
	round, operatorKeypair := newTestRound(t, testParams())
	voterKeypair := newVoter(t, 19)

	_, err := round.SignUp(voterKeypair.PubKey)
	require.NoError(t, err)

	deactivate, err := voter.BuildDeactivatePayload(voterKeypair, operatorKeypair.PubKey)
	require.NoError(t, err)
	require.NoError(t, round.PublishDeactivateMessage(deactivate.Ciphertext, deactivate.EncPubKey))

	result, err := round.ProcessDeactivateBatch(4, nil)
	require.NoError(t, err)

	// One real leaf plus three zero padding leaves.
	require.Len(t, result.Leaves, 4)
	assert.NotEqual(t, 0, result.Leaves[0][4].Sign())

	for _, padding := range result.Leaves[1:] {
		for _, field := range padding {
			assert.Equal(t, 0, field.Sign())
		}
	}

	_, err = round.ProcessDeactivateBatch(4, nil)
	assert.Equal(t, ErrorNoPendingDeactivates, err)
}

func TestDeactivateOnPlainRoundRejected(t *testing.T) {
	params := testParams()
	params.Anonymous = false

	round, _ := newTestRound(t, params)

	_, err := round.ProcessDeactivateBatch(1, nil)
	assert.Equal(t, ErrorRoundNotAnonymous, err)

	_, err = round.AddNewKey(newVoter(t, 23).PubKey, big.NewInt(1), [4]*big.Int{}, nil)
	assert.Equal(t, ErrorRoundNotAnonymous, err)
}
