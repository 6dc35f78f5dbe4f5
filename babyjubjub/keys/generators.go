package keys

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// PointGenerator returns a gopter generator for valid Baby Jubjub points.
//
// Each generated point is computed by multiplying a small random scalar with
// the base point B8, so the result always lies in the prime-order subgroup.
func PointGenerator() gopter.Gen {
	return gen.UInt64().Map(func(n uint64) *babyjub.Point {
		scalar := new(big.Int).SetUint64(n)

		return babyjub.NewPoint().Mul(scalar, babyjub.B8)
	})
}

// ScalarGenerator returns a gopter generator for random scalars modulo the
// Baby Jubjub subgroup order. Each generated scalar is a 32-byte big-endian
// integer reduced modulo babyjub.SubOrder.
func ScalarGenerator() gopter.Gen {
	return gen.SliceOfN(32, gen.UInt8()).Map(func(bytes []byte) *big.Int {
		x := new(big.Int).SetBytes(bytes)

		return x.Mod(x, babyjub.SubOrder)
	})
}

// KeypairGenerator returns a gopter generator for random keypairs.
func KeypairGenerator() gopter.Gen {
	return ScalarGenerator().Map(func(secret *big.Int) *Keypair {
		keypair, err := NewKeypair(secret)

		if err != nil {
			panic(err)
		}

		return keypair
	})
}
