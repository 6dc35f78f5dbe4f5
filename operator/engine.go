// Package operator implements the operator-side round engine: the local
// mirror of the on-chain voting round that accepts sign-ups and messages,
// runs the deactivate pipeline, processes the message queue in reverse
// order, tallies the final state and computes every commitment the chain
// will verify.
//
// A Round is exclusively owned by the operator process for that round;
// operations on it are sequential. Concurrent rounds share no mutable
// state.
package operator

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/privacy-ethereum/amaci-core/babyjubjub/keys"
	"github.com/privacy-ethereum/amaci-core/merkle"
	"github.com/privacy-ethereum/amaci-core/verifier/groth16"
	"github.com/privacy-ethereum/amaci-core/voter"
	"github.com/rs/zerolog"
)

// publishedMessage is one accepted queue entry.
type publishedMessage struct {
	ciphertext []*big.Int
	encPub     *babyjub.PublicKey
}

// Round is the operator's model of one voting round.
type Round struct {
	params   Params
	operator *keys.Keypair
	logger   zerolog.Logger
	keySet   groth16.KeySet

	period Period

	leaves       []*StateLeaf
	activeValues []*big.Int
	stateTree    *merkle.Tree
	activeTree   *merkle.Tree

	messages   []*publishedMessage
	encPubSeen map[string]bool

	deactivateQueue     []*publishedMessage
	deactivateProcessed int
	deactivateLeaves    [][]*big.Int
	deactivateTree      *merkle.Tree
	deactivateRoot      *big.Int
	deactivateCommit    *big.Int
	nullifiers          map[string]bool

	processCursor   int
	stateSalt       *big.Int
	stateCommitment *big.Int

	results     []*big.Int
	spent       []*big.Int
	tallyCursor uint64
	tallySalt   *big.Int
	tallyCommit *big.Int
	resultsRoot *big.Int

	snapshot *roundSnapshot
}

// NewRound creates a round in the filling period.
func NewRound(operatorKeypair *keys.Keypair, params Params) (*Round, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	stateTree, err := merkle.New(params.StateTreeDepth)

	if err != nil {
		return nil, err
	}

	activeTree, err := merkle.New(params.StateTreeDepth)

	if err != nil {
		return nil, err
	}

	deactivateTree, err := merkle.New(params.StateTreeDepth + 2)

	if err != nil {
		return nil, err
	}

	return &Round{
		params:           params,
		operator:         operatorKeypair,
		logger:           zerolog.Nop(),
		period:           PeriodFilling,
		stateTree:        stateTree,
		activeTree:       activeTree,
		deactivateTree:   deactivateTree,
		deactivateRoot:   deactivateTree.Root(),
		deactivateCommit: big.NewInt(0),
		encPubSeen:       make(map[string]bool),
		nullifiers:       make(map[string]bool),
		stateSalt:        big.NewInt(0),
	}, nil
}

// SetLogger attaches a structured logger to the round.
func (r *Round) SetLogger(logger zerolog.Logger) {
	r.logger = logger
}

// SetKeySet configures the verifying keys used to check submitted batch
// proofs. Without a key set, proofs are accepted unchecked — the chain is
// the authority.
func (r *Round) SetKeySet(keySet groth16.KeySet) {
	r.keySet = keySet
}

// Period returns the current period.
func (r *Round) Period() Period {
	return r.period
}

// NumSignUps returns the number of occupied state leaves.
func (r *Round) NumSignUps() uint64 {
	return uint64(len(r.leaves))
}

// StateRoot returns the current state tree root.
func (r *Round) StateRoot() *big.Int {
	return r.stateTree.Root()
}

// StateCommitment returns the commitment after the last processed batch.
func (r *Round) StateCommitment() *big.Int {
	if r.stateCommitment == nil {
		return big.NewInt(0)
	}

	return new(big.Int).Set(r.stateCommitment)
}

// DeactivateLeaves returns the published deactivate leaves in publication
// order, padding included. This is the array key-rotating voters scan.
func (r *Round) DeactivateLeaves() [][]*big.Int {
	leaves := make([][]*big.Int, len(r.deactivateLeaves))

	for i, leaf := range r.deactivateLeaves {
		copied := make([]*big.Int, len(leaf))

		for j, value := range leaf {
			copied[j] = new(big.Int).Set(value)
		}

		leaves[i] = copied
	}

	return leaves
}

// DeactivateRoot returns the current deactivate tree root.
func (r *Round) DeactivateRoot() *big.Int {
	return new(big.Int).Set(r.deactivateRoot)
}

// storeLeaf writes a leaf's hash into the state tree.
func (r *Round) storeLeaf(index uint64) error {
	leafHash, err := r.leaves[index].hash(r.params.Anonymous)

	if err != nil {
		return err
	}

	return r.stateTree.UpdateLeaf(index, leafHash)
}

// checkSubGroup validates a received public key.
func checkSubGroup(pub *babyjub.PublicKey) error {
	point := (*babyjub.Point)(pub)

	if !point.InCurve() || !point.InSubGroup() {
		return keys.ErrorNotInSubgroup
	}

	return nil
}

// SignUp appends a state leaf for a new voter and returns its index.
func (r *Round) SignUp(pub *babyjub.PublicKey) (uint64, error) {
	if r.period != PeriodFilling {
		return 0, ErrorWrongPeriod
	}

	if err := checkSubGroup(pub); err != nil {
		return 0, err
	}

	if uint64(len(r.leaves)) >= r.stateTree.Capacity() {
		return 0, ErrorTreeFull
	}

	index := uint64(len(r.leaves))
	r.leaves = append(r.leaves, newStateLeaf(pub, r.params.VoiceCredits, [4]*big.Int{}))
	r.activeValues = append(r.activeValues, big.NewInt(0))

	if err := r.storeLeaf(index); err != nil {
		r.leaves = r.leaves[:index]
		r.activeValues = r.activeValues[:index]

		return 0, err
	}

	r.logger.Info().Uint64("state_index", index).Msg("sign-up accepted")

	return index, nil
}

// publish validates and appends one message to a queue.
func (r *Round) publish(queue *[]*publishedMessage, ciphertext []*big.Int, encPub *babyjub.PublicKey, dedup bool) error {
	if r.period != PeriodFilling {
		return ErrorWrongPeriod
	}

	if len(ciphertext) != voter.CiphertextLength {
		return ErrorMalformedMessage
	}

	if err := checkSubGroup(encPub); err != nil {
		return err
	}

	if dedup {
		packed := keys.PackPublicKey(encPub)

		if r.encPubSeen[string(packed[:])] {
			return ErrorEncPubReused
		}

		r.encPubSeen[string(packed[:])] = true
	}

	copied := make([]*big.Int, len(ciphertext))

	for i, value := range ciphertext {
		copied[i] = new(big.Int).Set(value)
	}

	*queue = append(*queue, &publishedMessage{ciphertext: copied, encPub: encPub})

	return nil
}

// PublishMessage appends one vote message to the message queue. A reused
// single-use encryption key is rejected with ErrorEncPubReused.
func (r *Round) PublishMessage(ciphertext []*big.Int, encPub *babyjub.PublicKey) error {
	if err := r.publish(&r.messages, ciphertext, encPub, true); err != nil {
		return err
	}

	r.logger.Debug().Int("queue_length", len(r.messages)).Msg("message published")

	return nil
}

// PublishMessageBatch appends a payload's messages in order, rejecting
// intra-batch encryption key reuse before accepting anything.
func (r *Round) PublishMessageBatch(batch []*voter.MessagePayload) error {
	seen := make(map[string]bool, len(batch))

	for _, message := range batch {
		packed := keys.PackPublicKey(message.EncPubKey)

		if seen[string(packed[:])] {
			return ErrorEncPubReused
		}

		seen[string(packed[:])] = true
	}

	for _, message := range batch {
		if err := r.PublishMessage(message.Ciphertext, message.EncPubKey); err != nil {
			return err
		}
	}

	return nil
}

// PublishDeactivateMessage appends one deactivate message to the
// deactivate queue.
func (r *Round) PublishDeactivateMessage(ciphertext []*big.Int, encPub *babyjub.PublicKey) error {
	if !r.params.Anonymous {
		return ErrorRoundNotAnonymous
	}

	if err := r.publish(&r.deactivateQueue, ciphertext, encPub, false); err != nil {
		return err
	}

	r.logger.Debug().Int("queue_length", len(r.deactivateQueue)).Msg("deactivate message published")

	return nil
}
