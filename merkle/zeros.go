package merkle

import (
	"math/big"
	"sync"

	"github.com/privacy-ethereum/amaci-core/poseidon"
)

var (
	zerosOnce  sync.Once
	zeroHashes []*big.Int
)

// zeros returns the zero-hash chain: zero[0] = 0 and
// zero[k] = poseidon5(zero[k−1] repeated five times).
//
// The chain is computed once and shared read-only afterwards.
func zeros() []*big.Int {
	zerosOnce.Do(func() {
		zeroHashes = make([]*big.Int, MaxDepth+1)
		zeroHashes[0] = big.NewInt(0)

		for level := 1; level <= MaxDepth; level++ {
			previous := zeroHashes[level-1]

			node, err := poseidon.Hash5(previous, previous, previous, previous, previous)

			if err != nil {
				// The chain hashes reduced field elements only.
				panic(err)
			}

			zeroHashes[level] = node
		}
	})

	return zeroHashes
}

// Zero returns the root of an empty subtree of the given height.
func Zero(level int) (*big.Int, error) {
	if level < 0 || level > MaxDepth {
		return nil, ErrorTreeDepthOutOfRange
	}

	return zeros()[level], nil
}
