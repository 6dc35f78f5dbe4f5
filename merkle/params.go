package merkle

import "errors"

// Quinary tree constants
const (
	// Branching is the arity of every tree in the protocol.
	Branching = 5

	// MaxDepth is the deepest supported tree. The zero-hash chain is
	// precomputed once up to this depth and shared read-only.
	MaxDepth = 16
)

var (
	// ErrorTreeDepthOutOfRange is returned when a tree depth is zero,
	// negative, or exceeds MaxDepth.
	ErrorTreeDepthOutOfRange = errors.New("tree depth out of range")

	// ErrorTreeLeafOutOfRange is returned when a leaf index is not smaller
	// than the tree capacity.
	ErrorTreeLeafOutOfRange = errors.New("leaf index out of range")

	// ErrorTreeValueNotInField is returned when a leaf value is nil or not
	// a reduced field element.
	ErrorTreeValueNotInField = errors.New("leaf value not inside finite field")

	// ErrorTreeTooManyLeaves is returned when a batch initialisation
	// provides more values than the tree capacity.
	ErrorTreeTooManyLeaves = errors.New("too many leaves for tree capacity")
)
