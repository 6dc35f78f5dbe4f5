package bn254

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// g1Generator returns a gopter generator for G1 affine points with small
// random coordinates. The parser does not validate curve membership, so
// arbitrary coordinates exercise the byte layout.
func g1Generator() gopter.Gen {
	return gen.SliceOfN(2, gen.UInt64()).Map(func(value []uint64) *bn254.G1Affine {
		var point bn254.G1Affine

		point.X.SetUint64(value[0])
		point.Y.SetUint64(value[1])

		return &point
	})
}

func TestParseG1RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("serialise then parse returns the original point", prop.ForAll(
		func(point *bn254.G1Affine) bool {
			encoded := appendG1(nil, point)

			var decoded bn254.G1Affine

			offset, err := ParseG1(encoded, 0, &decoded)

			return err == nil && offset == G1Size && decoded.Equal(point)
		},
		g1Generator(),
	))

	properties.TestingRun(t)
}

func TestParseG1Truncated(t *testing.T) {
	var decoded bn254.G1Affine

	_, err := ParseG1(make([]byte, G1Size-1), 0, &decoded)
	assert.Equal(t, ErrorInvalidG1, err)
}

func TestParseG2RoundTrip(t *testing.T) {
	var point bn254.G2Affine

	point.X.A1.SetUint64(1)
	point.X.A0.SetUint64(2)
	point.Y.A1.SetUint64(3)
	point.Y.A0.SetUint64(4)

	encoded := appendG2(nil, &point)
	require.Len(t, encoded, G2Size)

	var decoded bn254.G2Affine

	offset, err := ParseG2(encoded, 0, &decoded)
	require.NoError(t, err)

	assert.Equal(t, G2Size, offset)
	assert.True(t, decoded.Equal(&point))
}

func TestParseG2Truncated(t *testing.T) {
	var decoded bn254.G2Affine

	_, err := ParseG2(make([]byte, G2Size-1), 0, &decoded)
	assert.Equal(t, ErrorInvalidG2, err)
}

func TestParseProofTruncated(t *testing.T) {
	_, err := ParseProof(make([]byte, ProofSize-1))
	assert.Error(t, err)
}
