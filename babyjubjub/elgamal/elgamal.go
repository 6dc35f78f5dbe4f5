// Package elgamal implements the exponential-parity ElGamal scheme the
// deactivate pipeline uses to publish, per state leaf, an encrypted
// active/deactivated bit that third parties can rerandomise but not read.
//
// A plaintext integer v is embedded into a curve point by incrementing the
// x coordinate until it satisfies the curve equation; the increment travels
// with the ciphertext so decryption can undo it. Encryption and
// rerandomisation are standard ElGamal over Baby Jubjub.
package elgamal

import (
	"crypto/rand"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/constants"
)

// Ciphertext is an ElGamal ciphertext (c1, c2) together with the
// x-increment of the embedded plaintext point.
type Ciphertext struct {
	C1 *babyjub.Point
	C2 *babyjub.Point

	// XIncrement is the offset added to the plaintext integer to reach a
	// valid curve x coordinate. It is preserved unchanged by
	// rerandomisation.
	XIncrement *big.Int
}

// addPoints returns p + q in affine coordinates.
func addPoints(p, q *babyjub.Point) *babyjub.Point {
	return babyjub.NewPoint().Projective().Add(p.Projective(), q.Projective()).Affine()
}

// negPoint returns −p; on a twisted Edwards curve the negation of (x, y)
// is (−x, y).
func negPoint(p *babyjub.Point) *babyjub.Point {
	negX := new(big.Int).Neg(p.X)
	negX.Mod(negX, constants.Q)

	return &babyjub.Point{X: negX, Y: new(big.Int).Set(p.Y)}
}

// mulPoint returns scalar · p.
func mulPoint(scalar *big.Int, p *babyjub.Point) *babyjub.Point {
	return babyjub.NewPoint().Mul(scalar, p)
}

// EncodeToMessage embeds a non-negative integer into a curve point.
//
// It returns the point whose x coordinate is the smallest value ≥ v lying
// on the curve, together with the increment x − v. The y root chosen by the
// modular square root is deterministic, so encoding is reproducible.
func EncodeToMessage(v *big.Int) (*babyjub.Point, *big.Int, error) {
	x := new(big.Int).Set(v)

	for attempt := 0; attempt < maxEncodeAttempts; attempt++ {
		if y := solveForY(x); y != nil {
			point := &babyjub.Point{X: new(big.Int).Set(x), Y: y}

			return point, new(big.Int).Sub(x, v), nil
		}

		x.Add(x, big.NewInt(1))
	}

	return nil, nil, ErrorEncodeFailure
}

// solveForY solves a·x² + y² = 1 + d·x²·y² for y, returning nil when x is
// not the x coordinate of any curve point.
func solveForY(x *big.Int) *big.Int {
	xSquared := new(big.Int).Mul(x, x)
	xSquared.Mod(xSquared, constants.Q)

	// y² = (1 − a·x²) / (1 − d·x²)
	numerator := new(big.Int).Mul(babyjub.A, xSquared)
	numerator.Sub(big.NewInt(1), numerator)
	numerator.Mod(numerator, constants.Q)

	denominator := new(big.Int).Mul(babyjub.D, xSquared)
	denominator.Sub(big.NewInt(1), denominator)
	denominator.Mod(denominator, constants.Q)

	if denominator.Sign() == 0 {
		return nil
	}

	ySquared := new(big.Int).ModInverse(denominator, constants.Q)
	ySquared.Mul(ySquared, numerator)
	ySquared.Mod(ySquared, constants.Q)

	return new(big.Int).ModSqrt(ySquared, constants.Q)
}

// DecodeMessage recovers the embedded integer from a plaintext point and
// its x-increment.
func DecodeMessage(point *babyjub.Point, xIncrement *big.Int) *big.Int {
	decoded := new(big.Int).Sub(point.X, xIncrement)

	return decoded.Mod(decoded, constants.Q)
}

// EncryptOdevity encrypts a parity bit under pub with the randomness r:
// c1 = r·B8, c2 = M + r·pub where M embeds the parity marker.
//
// The marker integer is odd exactly when odd is true, so the decoded value
// modulo 2 equals the encrypted parity.
func EncryptOdevity(odd bool, pub *babyjub.PublicKey, r *big.Int) (*Ciphertext, error) {
	marker := big.NewInt(EvenMarker)

	if odd {
		marker = big.NewInt(OddMarker)
	}

	message, xIncrement, err := EncodeToMessage(marker)

	if err != nil {
		return nil, err
	}

	scalar := new(big.Int).Mod(r, babyjub.SubOrder)

	return &Ciphertext{
		C1:         mulPoint(scalar, babyjub.B8),
		C2:         addPoints(message, mulPoint(scalar, (*babyjub.Point)(pub))),
		XIncrement: xIncrement,
	}, nil
}

// EncryptOdevityRand encrypts a parity bit under pub with fresh uniform
// randomness.
func EncryptOdevityRand(odd bool, pub *babyjub.PublicKey) (*Ciphertext, error) {
	r, err := rand.Int(rand.Reader, babyjub.SubOrder)

	if err != nil {
		return nil, err
	}

	return EncryptOdevity(odd, pub, r)
}

// Decrypt recovers the parity bit with the recipient's formatted private
// key: M = c2 − priv·c1, parity = decode(M, xIncrement) mod 2.
//
// Returns ErrorInvalidCiphertext when the ciphertext points fail curve or
// subgroup validation and ErrorDecodeFailure when the decoded integer is
// not a known marker.
func Decrypt(priv *big.Int, ct *Ciphertext) (bool, error) {
	if ct == nil || ct.C1 == nil || ct.C2 == nil || ct.XIncrement == nil {
		return false, ErrorInvalidCiphertext
	}

	if !ct.C1.InCurve() || !ct.C1.InSubGroup() || !ct.C2.InCurve() {
		return false, ErrorInvalidCiphertext
	}

	message := addPoints(ct.C2, negPoint(mulPoint(priv, ct.C1)))
	decoded := DecodeMessage(message, ct.XIncrement)

	switch {
	case decoded.Cmp(big.NewInt(OddMarker)) == 0:
		return true, nil
	case decoded.Cmp(big.NewInt(EvenMarker)) == 0:
		return false, nil
	default:
		return false, ErrorDecodeFailure
	}
}

// Rerandomize refreshes a ciphertext with the scalar z without changing the
// plaintext: d1 = c1 + z·B8, d2 = c2 + z·pub. The x-increment is preserved.
//
// Decrypting the result yields the same parity as decrypting the input.
func Rerandomize(ct *Ciphertext, pub *babyjub.PublicKey, z *big.Int) (*Ciphertext, error) {
	if ct == nil || ct.C1 == nil || ct.C2 == nil {
		return nil, ErrorInvalidCiphertext
	}

	if !ct.C1.InCurve() || !ct.C2.InCurve() {
		return nil, ErrorInvalidCiphertext
	}

	scalar := new(big.Int).Mod(z, babyjub.SubOrder)
	xIncrement := big.NewInt(0)

	if ct.XIncrement != nil {
		xIncrement.Set(ct.XIncrement)
	}

	return &Ciphertext{
		C1:         addPoints(ct.C1, mulPoint(scalar, babyjub.B8)),
		C2:         addPoints(ct.C2, mulPoint(scalar, (*babyjub.Point)(pub))),
		XIncrement: xIncrement,
	}, nil
}
