package operator

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/privacy-ethereum/amaci-core/merkle"
	"github.com/privacy-ethereum/amaci-core/poseidon"
)

// StateLeaf is one registered voter slot. Leaves live in a flat vector
// indexed by sign-up order; the trees store only their hashes.
type StateLeaf struct {
	// PubKey is the key messages must currently be signed with.
	PubKey *babyjub.PublicKey

	// Balance is the remaining voice credits.
	Balance *big.Int

	// VoTreeRoot commits to the leaf's vote weights. It stays zero until
	// the first accepted vote.
	VoTreeRoot *big.Int

	// Nonce is the last accepted command nonce.
	Nonce uint32

	// D is the rerandomised parity ciphertext bound at key rotation;
	// all-zero for plain sign-ups.
	D [4]*big.Int

	votes map[uint32]*big.Int
	voted bool
}

// newStateLeaf returns a fresh leaf for a sign-up or key rotation.
func newStateLeaf(pub *babyjub.PublicKey, balance *big.Int, d [4]*big.Int) *StateLeaf {
	leaf := &StateLeaf{
		PubKey:     pub,
		Balance:    new(big.Int).Set(balance),
		VoTreeRoot: big.NewInt(0),
		votes:      make(map[uint32]*big.Int),
	}

	for i := range d {
		if d[i] == nil {
			leaf.D[i] = big.NewInt(0)
		} else {
			leaf.D[i] = new(big.Int).Set(d[i])
		}
	}

	return leaf
}

// hash computes the leaf commitment.
//
// The interior is poseidon5(pubX, pubY, balance, voRoot, nonce); anonymous
// rounds bind the rerandomised ciphertext with a second level:
// poseidon2(interior, poseidon5(d1x, d1y, d2x, d2y, 0)).
func (l *StateLeaf) hash(anonymous bool) (*big.Int, error) {
	interior, err := poseidon.Hash5(
		l.PubKey.X,
		l.PubKey.Y,
		l.Balance,
		l.VoTreeRoot,
		new(big.Int).SetUint64(uint64(l.Nonce)),
	)

	if err != nil {
		return nil, err
	}

	if !anonymous {
		return interior, nil
	}

	dHash, err := poseidon.Hash5(l.D[0], l.D[1], l.D[2], l.D[3], big.NewInt(0))

	if err != nil {
		return nil, err
	}

	return poseidon.Hash2(interior, dHash)
}

// voteWeight returns the weight currently placed on an option (zero when
// unset).
func (l *StateLeaf) voteWeight(option uint32) *big.Int {
	if weight, ok := l.votes[option]; ok {
		return weight
	}

	return big.NewInt(0)
}

// setVote overwrites the weight on an option and recomputes the vote-option
// tree root.
func (l *StateLeaf) setVote(option uint32, weight *big.Int, treeDepth int) error {
	l.votes[option] = new(big.Int).Set(weight)
	l.voted = true

	tree, err := merkle.New(treeDepth)

	if err != nil {
		return err
	}

	highest := uint32(0)

	for index := range l.votes {
		if index > highest {
			highest = index
		}
	}

	values := make([]*big.Int, highest+1)

	for i := range values {
		values[i] = l.voteWeight(uint32(i))
	}

	if err := tree.InitLeaves(values); err != nil {
		return err
	}

	l.VoTreeRoot = tree.Root()

	return nil
}

// clone deep-copies the leaf for batch snapshots.
func (l *StateLeaf) clone() *StateLeaf {
	copied := &StateLeaf{
		PubKey: &babyjub.PublicKey{
			X: new(big.Int).Set(l.PubKey.X),
			Y: new(big.Int).Set(l.PubKey.Y),
		},
		Balance:    new(big.Int).Set(l.Balance),
		VoTreeRoot: new(big.Int).Set(l.VoTreeRoot),
		Nonce:      l.Nonce,
		votes:      make(map[uint32]*big.Int, len(l.votes)),
		voted:      l.voted,
	}

	for i := range l.D {
		copied.D[i] = new(big.Int).Set(l.D[i])
	}

	for option, weight := range l.votes {
		copied.votes[option] = new(big.Int).Set(weight)
	}

	return copied
}
