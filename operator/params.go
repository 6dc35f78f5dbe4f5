package operator

import (
	"errors"
	"math/big"
)

// Period is the linear per-round state machine mirrored from the contract.
type Period int

const (
	// PeriodFilling accepts sign-ups, messages, deactivate processing and
	// key rotations.
	PeriodFilling Period = iota

	// PeriodProcessing drains the message queue in reverse order.
	PeriodProcessing

	// PeriodTallying accumulates processed state leaves into the tally.
	PeriodTallying

	// PeriodEnded is terminal.
	PeriodEnded
)

// String returns the period's lowercase name.
func (p Period) String() string {
	switch p {
	case PeriodFilling:
		return "filling"
	case PeriodProcessing:
		return "processing"
	case PeriodTallying:
		return "tallying"
	case PeriodEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// resultEncodingBase separates the vote count from the spent voice credits
// in an encoded per-option result: encoded = votes·10^24 + spent.
var resultEncodingBase, _ = new(big.Int).SetString("1000000000000000000000000", 10)

var (
	// ErrorInvalidParams is returned when round parameters are incoherent
	// (non-positive depths, batch sizes or voice credits).
	ErrorInvalidParams = errors.New("invalid round parameters")

	// ErrorWrongPeriod is returned when an operation is attempted outside
	// its period.
	ErrorWrongPeriod = errors.New("operation not allowed in current period")

	// ErrorTreeFull is returned when a sign-up or key rotation would
	// exceed the state tree capacity.
	ErrorTreeFull = errors.New("state tree is full")

	// ErrorEncPubReused is returned when a message reuses a single-use
	// encryption public key already accepted this round.
	ErrorEncPubReused = errors.New("encryption public key already used")

	// ErrorNewKeyExists is returned on a nullifier replay: the contract's
	// "this new key is already exist" rejection.
	ErrorNewKeyExists = errors.New("this new key is already exist")

	// ErrorRoundNotAnonymous is returned when a deactivate or key-rotation
	// operation is attempted on a round without the anonymous extension.
	ErrorRoundNotAnonymous = errors.New("round has no anonymous extension")

	// ErrorMalformedMessage is returned when a published ciphertext does
	// not have the fixed wire arity.
	ErrorMalformedMessage = errors.New("malformed message ciphertext")

	// ErrorInvalidBatchSize is returned when a deactivate batch size is
	// not positive.
	ErrorInvalidBatchSize = errors.New("invalid batch size")

	// ErrorNoPendingDeactivates is returned when a deactivate batch is
	// requested with an empty queue.
	ErrorNoPendingDeactivates = errors.New("no pending deactivate messages")

	// ErrorAllMessagesProcessed is returned by ProcessNextBatch when the
	// message queue is fully drained.
	ErrorAllMessagesProcessed = errors.New("all messages processed")

	// ErrorAllLeavesTallied is returned by ProcessTallyBatch when every
	// state leaf has been accumulated.
	ErrorAllLeavesTallied = errors.New("all leaves tallied")

	// ErrorProcessingIncomplete is returned when a period transition is
	// attempted before the current period's batches are exhausted.
	ErrorProcessingIncomplete = errors.New("unprocessed batches remain")

	// ErrorNoSnapshot is returned when a rollback is requested with no
	// batch in flight.
	ErrorNoSnapshot = errors.New("no batch snapshot to roll back")

	// ErrorTallyMismatch is returned when published results and salt do
	// not reproduce the round's tally commitment.
	ErrorTallyMismatch = errors.New("results do not match tally commitment")

	// ErrorProofVerificationFailed is returned when a configured verifying
	// key rejects a submitted batch proof; the batch may be retried after
	// rollback.
	ErrorProofVerificationFailed = errors.New("proof verification failed")
)

// Params fixes a round's shape at creation time.
type Params struct {
	// StateTreeDepth bounds sign-ups at 5^StateTreeDepth.
	StateTreeDepth int

	// IntStateTreeDepth sets the tally batch size to 5^IntStateTreeDepth.
	IntStateTreeDepth int

	// VoteOptionTreeDepth bounds vote options at 5^VoteOptionTreeDepth.
	VoteOptionTreeDepth int

	// MessageBatchSize is the number of messages per processing batch.
	MessageBatchSize int

	// VoiceCredits is the budget every state leaf starts with.
	VoiceCredits *big.Int

	// Quadratic selects weight² vote costs instead of weight.
	Quadratic bool

	// Anonymous enables the deactivate and key-rotation pipeline and the
	// extended state-leaf hash.
	Anonymous bool
}

// validate checks parameter coherence.
func (p *Params) validate() error {
	if p.StateTreeDepth <= 0 || p.IntStateTreeDepth <= 0 || p.VoteOptionTreeDepth <= 0 {
		return ErrorInvalidParams
	}

	if p.IntStateTreeDepth > p.StateTreeDepth {
		return ErrorInvalidParams
	}

	if p.MessageBatchSize <= 0 {
		return ErrorInvalidParams
	}

	if p.VoiceCredits == nil || p.VoiceCredits.Sign() <= 0 {
		return ErrorInvalidParams
	}

	return nil
}

// maxVoteOptions returns 5^VoteOptionTreeDepth.
func (p *Params) maxVoteOptions() uint64 {
	capacity := uint64(1)

	for i := 0; i < p.VoteOptionTreeDepth; i++ {
		capacity *= 5
	}

	return capacity
}

// tallyBatchSize returns 5^IntStateTreeDepth.
func (p *Params) tallyBatchSize() uint64 {
	capacity := uint64(1)

	for i := 0; i < p.IntStateTreeDepth; i++ {
		capacity *= 5
	}

	return capacity
}
