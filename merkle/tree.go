// Package merkle implements the quinary (5-ary) incremental Merkle tree
// shared by the state, active-state, deactivate and vote-option trees.
//
// Nodes hash with poseidon5; empty subtrees hash to the zero chain, so the
// tree stores only the nodes on paths that have been written. Leaves live
// in a flat index space and the tree never holds references into caller
// data structures.
package merkle

import (
	"math/big"

	iden3utils "github.com/iden3/go-iden3-crypto/utils"
	"github.com/privacy-ethereum/amaci-core/poseidon"
)

// Tree is a fixed-depth quinary Merkle tree.
type Tree struct {
	depth    int
	capacity uint64
	levels   []map[uint64]*big.Int
}

// Path is a Merkle inclusion path: per level, the four sibling hashes in
// ascending child order (the node itself excluded) and the node's radix-5
// position among its siblings.
type Path struct {
	Elements [][]*big.Int
	Indices  []int
}

// New creates an empty tree of the given depth (capacity 5^depth).
func New(depth int) (*Tree, error) {
	if depth <= 0 || depth > MaxDepth {
		return nil, ErrorTreeDepthOutOfRange
	}

	capacity := uint64(1)

	for i := 0; i < depth; i++ {
		capacity *= Branching
	}

	levels := make([]map[uint64]*big.Int, depth+1)

	for i := range levels {
		levels[i] = make(map[uint64]*big.Int)
	}

	return &Tree{depth: depth, capacity: capacity, levels: levels}, nil
}

// Depth returns the tree depth.
func (t *Tree) Depth() int {
	return t.depth
}

// Capacity returns the number of leaves the tree can hold.
func (t *Tree) Capacity() uint64 {
	return t.capacity
}

// node returns the stored node at (level, index) or the zero hash for an
// untouched subtree.
func (t *Tree) node(level int, index uint64) *big.Int {
	if value, ok := t.levels[level][index]; ok {
		return value
	}

	return zeros()[level]
}

// Root returns the current root hash.
func (t *Tree) Root() *big.Int {
	return new(big.Int).Set(t.node(t.depth, 0))
}

// Leaf returns the value stored at the given leaf index (zero when unset).
func (t *Tree) Leaf(index uint64) (*big.Int, error) {
	if index >= t.capacity {
		return nil, ErrorTreeLeafOutOfRange
	}

	return new(big.Int).Set(t.node(0, index)), nil
}

// UpdateLeaf sets the leaf at index to value and rehashes the path to the
// root.
func (t *Tree) UpdateLeaf(index uint64, value *big.Int) error {
	if index >= t.capacity {
		return ErrorTreeLeafOutOfRange
	}

	if value == nil || !iden3utils.CheckBigIntInField(value) {
		return ErrorTreeValueNotInField
	}

	t.levels[0][index] = new(big.Int).Set(value)

	current := index

	for level := 0; level < t.depth; level++ {
		parent := current / Branching
		base := parent * Branching

		node, err := poseidon.Hash5(
			t.node(level, base),
			t.node(level, base+1),
			t.node(level, base+2),
			t.node(level, base+3),
			t.node(level, base+4),
		)

		if err != nil {
			return err
		}

		t.levels[level+1][parent] = node
		current = parent
	}

	return nil
}

// InitLeaves resets the tree and writes the given values at leaves 0..n−1
// in a single batch rebuild. The resulting root equals the root obtained by
// repeated UpdateLeaf calls over the same values.
func (t *Tree) InitLeaves(values []*big.Int) error {
	if uint64(len(values)) > t.capacity {
		return ErrorTreeTooManyLeaves
	}

	for i := range t.levels {
		t.levels[i] = make(map[uint64]*big.Int)
	}

	for i, value := range values {
		if value == nil || !iden3utils.CheckBigIntInField(value) {
			return ErrorTreeValueNotInField
		}

		t.levels[0][uint64(i)] = new(big.Int).Set(value)
	}

	occupied := uint64(len(values))

	for level := 0; level < t.depth; level++ {
		parents := (occupied + Branching - 1) / Branching

		for parent := uint64(0); parent < parents; parent++ {
			base := parent * Branching

			node, err := poseidon.Hash5(
				t.node(level, base),
				t.node(level, base+1),
				t.node(level, base+2),
				t.node(level, base+3),
				t.node(level, base+4),
			)

			if err != nil {
				return err
			}

			t.levels[level+1][parent] = node
		}

		occupied = parents
	}

	return nil
}

// PathOf returns the inclusion path for the given leaf index.
func (t *Tree) PathOf(index uint64) (*Path, error) {
	if index >= t.capacity {
		return nil, ErrorTreeLeafOutOfRange
	}

	elements := make([][]*big.Int, t.depth)
	indices := make([]int, t.depth)
	current := index

	for level := 0; level < t.depth; level++ {
		position := int(current % Branching)
		base := (current / Branching) * Branching
		siblings := make([]*big.Int, 0, Branching-1)

		for child := 0; child < Branching; child++ {
			if child == position {
				continue
			}

			siblings = append(siblings, new(big.Int).Set(t.node(level, base+uint64(child))))
		}

		elements[level] = siblings
		indices[level] = position
		current /= Branching
	}

	return &Path{Elements: elements, Indices: indices}, nil
}

// RootFromPath recomputes the root committed to by a leaf and its inclusion
// path.
func RootFromPath(leaf *big.Int, path *Path) (*big.Int, error) {
	if path == nil || len(path.Elements) != len(path.Indices) {
		return nil, ErrorTreeDepthOutOfRange
	}

	current := new(big.Int).Set(leaf)

	for level := range path.Elements {
		siblings := path.Elements[level]
		position := path.Indices[level]

		if len(siblings) != Branching-1 || position < 0 || position >= Branching {
			return nil, ErrorTreeLeafOutOfRange
		}

		row := make([]*big.Int, 0, Branching)
		row = append(row, siblings[:position]...)
		row = append(row, current)
		row = append(row, siblings[position:]...)

		node, err := poseidon.Hash(row)

		if err != nil {
			return nil, err
		}

		current = node
	}

	return current, nil
}

// ExtendRoot lifts the root of a tree of height fromDepth to the root of a
// tree of height toDepth whose first 5^fromDepth leaves form the original
// tree and whose remaining leaves are zero.
//
// This is the only sparse fast-path the protocol permits; the result equals
// rebuilding the larger tree from the same leaves.
func ExtendRoot(root *big.Int, fromDepth, toDepth int) (*big.Int, error) {
	if fromDepth < 0 || fromDepth > toDepth || toDepth > MaxDepth {
		return nil, ErrorTreeDepthOutOfRange
	}

	current := new(big.Int).Set(root)

	for level := fromDepth; level < toDepth; level++ {
		zero := zeros()[level]

		node, err := poseidon.Hash5(current, zero, zero, zero, zero)

		if err != nil {
			return nil, err
		}

		current = node
	}

	return current, nil
}

// ExtendPath lifts an inclusion path of a tree of height fromDepth into the
// corresponding path of a tree of height toDepth extended with zero
// subtrees: the appended levels sit at position 0 with all-zero siblings.
func ExtendPath(path *Path, fromDepth, toDepth int) (*Path, error) {
	if path == nil || len(path.Elements) != fromDepth || fromDepth > toDepth || toDepth > MaxDepth {
		return nil, ErrorTreeDepthOutOfRange
	}

	elements := make([][]*big.Int, 0, toDepth)
	indices := make([]int, 0, toDepth)

	for level := range path.Elements {
		siblings := make([]*big.Int, len(path.Elements[level]))

		for i, sibling := range path.Elements[level] {
			siblings[i] = new(big.Int).Set(sibling)
		}

		elements = append(elements, siblings)
		indices = append(indices, path.Indices[level])
	}

	for level := fromDepth; level < toDepth; level++ {
		zero := zeros()[level]
		siblings := make([]*big.Int, Branching-1)

		for i := range siblings {
			siblings[i] = new(big.Int).Set(zero)
		}

		elements = append(elements, siblings)
		indices = append(indices, 0)
	}

	return &Path{Elements: elements, Indices: indices}, nil
}
