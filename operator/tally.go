package operator

import (
	"math/big"

	"github.com/privacy-ethereum/amaci-core/commitment"
	"github.com/privacy-ethereum/amaci-core/merkle"
	"github.com/privacy-ethereum/amaci-core/poseidon"
)

// TallyBatchResult reports one accumulated tally batch.
type TallyBatchResult struct {
	// FirstLeafIndex is the state index of the first leaf in the batch.
	FirstLeafIndex uint64

	// NewTallyCommitment is the salted commitment after the batch.
	NewTallyCommitment *big.Int

	// Inputs are the circuit public inputs for the batch proof.
	Inputs *commitment.TallyVotesInputs
}

// voteCost returns the voice-credit cost of a weight under the round's
// cost model.
func (r *Round) voteCost(weight *big.Int) *big.Int {
	if r.params.Quadratic {
		return new(big.Int).Mul(weight, weight)
	}

	return new(big.Int).Set(weight)
}

// encodedResults returns the per-option results in published form:
// votes·10^24 + voice credits spent.
func (r *Round) encodedResults() []*big.Int {
	encoded := make([]*big.Int, len(r.results))

	for i := range r.results {
		value := new(big.Int).Mul(r.results[i], resultEncodingBase)
		encoded[i] = value.Add(value, r.spent[i])
	}

	return encoded
}

// resultsTreeRoot commits to encoded per-option results.
func (r *Round) resultsTreeRoot(encoded []*big.Int) (*big.Int, error) {
	tree, err := merkle.New(r.params.VoteOptionTreeDepth)

	if err != nil {
		return nil, err
	}

	if err := tree.InitLeaves(encoded); err != nil {
		return nil, err
	}

	return tree.Root(), nil
}

// ProcessTallyBatch accumulates the next 5^intStateTreeDepth state leaves
// into the running per-option tally and returns the new tally commitment.
func (r *Round) ProcessTallyBatch(proof []byte) (*TallyBatchResult, error) {
	if r.period != PeriodTallying {
		return nil, ErrorWrongPeriod
	}

	total := uint64(len(r.leaves))

	if r.tallyCursor >= total {
		return nil, ErrorAllLeavesTallied
	}

	r.takeSnapshot()

	start := r.tallyCursor
	end := min(start+r.params.tallyBatchSize(), total)

	for i := start; i < end; i++ {
		for option, weight := range r.leaves[i].votes {
			r.results[option].Add(r.results[option], weight)
			r.spent[option].Add(r.spent[option], r.voteCost(weight))
		}
	}

	r.tallyCursor = end

	resultsRoot, err := r.resultsTreeRoot(r.encodedResults())

	if err != nil {
		return nil, err
	}

	batchDigest, err := poseidon.Hash2(new(big.Int).SetUint64(start), resultsRoot)

	if err != nil {
		return nil, err
	}

	newSalt, err := commitment.ChainSalt(r.tallySalt, batchDigest)

	if err != nil {
		return nil, err
	}

	newCommitment, err := commitment.TallyCommitment(resultsRoot, newSalt)

	if err != nil {
		return nil, err
	}

	r.resultsRoot = resultsRoot
	r.tallySalt = newSalt
	r.tallyCommit = newCommitment

	inputs := &commitment.TallyVotesInputs{NewTallyCommitment: newCommitment}

	if r.keySet != nil {
		if err := r.keySet.VerifyCircuit(inputs, proof); err != nil {
			if restoreErr := r.restoreSnapshot(); restoreErr != nil {
				return nil, restoreErr
			}

			return nil, ErrorProofVerificationFailed
		}
	}

	r.logger.Info().
		Uint64("first_leaf", start).
		Uint64("tallied", end-start).
		Msg("tally batch processed")

	return &TallyBatchResult{
		FirstLeafIndex:     start,
		NewTallyCommitment: new(big.Int).Set(newCommitment),
		Inputs:             inputs,
	}, nil
}

// StopTallyingPeriod publishes the final results and salt, checks them
// against the round's tally commitment and ends the round.
func (r *Round) StopTallyingPeriod(results []*big.Int, tallySalt *big.Int) error {
	if r.period != PeriodTallying {
		return ErrorWrongPeriod
	}

	if r.tallyCursor != uint64(len(r.leaves)) {
		return ErrorProcessingIncomplete
	}

	if r.tallyCommit != nil {
		if uint64(len(results)) != r.params.maxVoteOptions() || tallySalt == nil {
			return ErrorTallyMismatch
		}

		resultsRoot, err := r.resultsTreeRoot(results)

		if err != nil {
			return err
		}

		expected, err := commitment.TallyCommitment(resultsRoot, tallySalt)

		if err != nil {
			return err
		}

		if expected.Cmp(r.tallyCommit) != 0 {
			return ErrorTallyMismatch
		}
	}

	r.period = PeriodEnded
	r.snapshot = nil

	r.logger.Info().Str("period", r.period.String()).Msg("period transition")

	return nil
}

// TallySalt returns the salt after the last tally batch.
func (r *Round) TallySalt() *big.Int {
	if r.tallySalt == nil {
		return big.NewInt(0)
	}

	return new(big.Int).Set(r.tallySalt)
}

// EncodedResults returns the published per-option results,
// votes·10^24 + spent.
func (r *Round) EncodedResults() []*big.Int {
	return r.encodedResults()
}

// Results returns the decoded per-option vote counts and spent voice
// credits.
func (r *Round) Results() (votes []*big.Int, spent []*big.Int) {
	return copyScalars(r.results), copyScalars(r.spent)
}

// DecodeResult splits an encoded per-option result into its vote count and
// spent voice credits.
func DecodeResult(encoded *big.Int) (votes *big.Int, spent *big.Int) {
	votes = new(big.Int)
	spent = new(big.Int)
	votes.DivMod(encoded, resultEncodingBase, spent)

	return votes, spent
}
