package operator

import (
	"math/big"
)

// roundSnapshot captures the mutable round state before a batch so a failed
// proof submission can be retried from scratch. Trees are not copied; they
// are rebuilt from the authoritative vectors on restore.
type roundSnapshot struct {
	leaves              []*StateLeaf
	activeValues        []*big.Int
	deactivateProcessed int
	deactivateLeaves    [][]*big.Int
	deactivateRoot      *big.Int
	deactivateCommit    *big.Int
	processCursor       int
	stateSalt           *big.Int
	stateCommitment     *big.Int
	results             []*big.Int
	spent               []*big.Int
	tallyCursor         uint64
	tallySalt           *big.Int
	tallyCommit         *big.Int
	resultsRoot         *big.Int
}

func copyScalars(values []*big.Int) []*big.Int {
	if values == nil {
		return nil
	}

	copied := make([]*big.Int, len(values))

	for i, value := range values {
		copied[i] = new(big.Int).Set(value)
	}

	return copied
}

func copyScalar(value *big.Int) *big.Int {
	if value == nil {
		return nil
	}

	return new(big.Int).Set(value)
}

// takeSnapshot records the pre-batch state. Only one snapshot is held: a
// new batch discards the previous one, committing it implicitly.
func (r *Round) takeSnapshot() {
	leaves := make([]*StateLeaf, len(r.leaves))

	for i, leaf := range r.leaves {
		leaves[i] = leaf.clone()
	}

	deactivates := make([][]*big.Int, len(r.deactivateLeaves))

	for i, leaf := range r.deactivateLeaves {
		deactivates[i] = copyScalars(leaf)
	}

	r.snapshot = &roundSnapshot{
		leaves:              leaves,
		activeValues:        copyScalars(r.activeValues),
		deactivateProcessed: r.deactivateProcessed,
		deactivateLeaves:    deactivates,
		deactivateRoot:      copyScalar(r.deactivateRoot),
		deactivateCommit:    copyScalar(r.deactivateCommit),
		processCursor:       r.processCursor,
		stateSalt:           copyScalar(r.stateSalt),
		stateCommitment:     copyScalar(r.stateCommitment),
		results:             copyScalars(r.results),
		spent:               copyScalars(r.spent),
		tallyCursor:         r.tallyCursor,
		tallySalt:           copyScalar(r.tallySalt),
		tallyCommit:         copyScalar(r.tallyCommit),
		resultsRoot:         copyScalar(r.resultsRoot),
	}
}

// restoreSnapshot rewinds the round to the last snapshot and rebuilds the
// trees from the restored vectors.
func (r *Round) restoreSnapshot() error {
	if r.snapshot == nil {
		return ErrorNoSnapshot
	}

	snapshot := r.snapshot
	r.snapshot = nil

	r.leaves = snapshot.leaves
	r.activeValues = snapshot.activeValues
	r.deactivateProcessed = snapshot.deactivateProcessed
	r.deactivateLeaves = snapshot.deactivateLeaves
	r.deactivateRoot = snapshot.deactivateRoot
	r.deactivateCommit = snapshot.deactivateCommit
	r.processCursor = snapshot.processCursor
	r.stateSalt = snapshot.stateSalt
	r.stateCommitment = snapshot.stateCommitment
	r.results = snapshot.results
	r.spent = snapshot.spent
	r.tallyCursor = snapshot.tallyCursor
	r.tallySalt = snapshot.tallySalt
	r.tallyCommit = snapshot.tallyCommit
	r.resultsRoot = snapshot.resultsRoot

	return r.rebuildTrees()
}

// rebuildTrees reconstructs every tree from the authoritative vectors.
func (r *Round) rebuildTrees() error {
	stateHashes := make([]*big.Int, len(r.leaves))

	for i, leaf := range r.leaves {
		leafHash, err := leaf.hash(r.params.Anonymous)

		if err != nil {
			return err
		}

		stateHashes[i] = leafHash
	}

	if err := r.stateTree.InitLeaves(stateHashes); err != nil {
		return err
	}

	if err := r.activeTree.InitLeaves(r.activeValues); err != nil {
		return err
	}

	deactivateHashes := make([]*big.Int, len(r.deactivateLeaves))

	for i := range r.deactivateLeaves {
		leafHash, err := deactivateLeafHash(r.deactivateLeaves[i])

		if err != nil {
			return err
		}

		deactivateHashes[i] = leafHash
	}

	return r.deactivateTree.InitLeaves(deactivateHashes)
}
