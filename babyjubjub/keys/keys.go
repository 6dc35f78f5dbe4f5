// Package keys implements voter and operator identities on Baby Jubjub:
// EdDSA-Poseidon keypairs, ECDH shared keys, and the packed wire encodings
// of public keys and signatures.
//
// Key derivation follows the EdDSA-Poseidon reference exactly: the secret
// scalar is serialised big-endian, expanded with the legacy blake hash,
// pruned (clear the low three bits, clear the top bit, set bit 254 of the
// expansion) and shifted, yielding the formatted private key whose product
// with the subgroup generator B8 is the public key.
package keys

import (
	"crypto/rand"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/constants"
	iden3utils "github.com/iden3/go-iden3-crypto/utils"
)

// Keypair is an EdDSA-Poseidon identity. It is created deterministically
// from a secret scalar and never mutated afterwards.
type Keypair struct {
	// RawPrivKey is the canonical secret scalar in [0, p).
	RawPrivKey *big.Int

	// FormattedPrivKey is the pruned-and-shifted derivation of RawPrivKey;
	// the public key equals FormattedPrivKey · B8.
	FormattedPrivKey *big.Int

	// PubKey is the public key point in the prime-order subgroup.
	PubKey *babyjub.PublicKey

	privKey babyjub.PrivateKey
}

// NewKeypair derives a keypair from a secret scalar.
//
// The secret is reduced modulo the SNARK field before derivation, so any
// non-negative integer is accepted; nil or negative secrets are rejected
// with ErrorInvalidScalar.
func NewKeypair(secret *big.Int) (*Keypair, error) {
	if secret == nil || secret.Sign() < 0 {
		return nil, ErrorInvalidScalar
	}

	raw := new(big.Int).Mod(secret, constants.Q)

	var privKey babyjub.PrivateKey

	raw.FillBytes(privKey[:])

	return &Keypair{
		RawPrivKey:       raw,
		FormattedPrivKey: privKey.Scalar().BigInt(),
		PubKey:           privKey.Public(),
		privKey:          privKey,
	}, nil
}

// NewRandomKeypair derives a keypair from a uniformly random secret scalar.
func NewRandomKeypair() (*Keypair, error) {
	secret, err := rand.Int(rand.Reader, constants.Q)

	if err != nil {
		return nil, err
	}

	return NewKeypair(secret)
}

// Sign produces an EdDSA-Poseidon signature over a single field element.
//
// The nonce is derived deterministically from the high half of the expanded
// secret and the message, R8 = nonce·B8, and
// S = nonce + poseidon5(R8.x, R8.y, pub.x, pub.y, msg)·formattedPrivKey
// modulo the subgroup order.
func (k *Keypair) Sign(msg *big.Int) (*babyjub.Signature, error) {
	if msg == nil || !iden3utils.CheckBigIntInField(msg) {
		return nil, ErrorMessageNotInField
	}

	return k.privKey.SignPoseidon(msg), nil
}

// SharedKey computes the ECDH shared point with a peer public key:
// formattedPrivKey · peer. Both directions of a pair derive the same point.
func (k *Keypair) SharedKey(peer *babyjub.PublicKey) *babyjub.Point {
	return babyjub.NewPoint().Mul(k.FormattedPrivKey, (*babyjub.Point)(peer))
}

// Verify checks an EdDSA-Poseidon signature.
//
// The public key and R8 must lie in the prime-order subgroup and S must be
// smaller than the subgroup order; the final check is cofactor-cleared:
// 8·S·B8 == 8·(R8 + h·pub). Returns nil for a valid signature.
func Verify(msg *big.Int, sig *babyjub.Signature, pub *babyjub.PublicKey) error {
	if msg == nil || !iden3utils.CheckBigIntInField(msg) {
		return ErrorMessageNotInField
	}

	point := (*babyjub.Point)(pub)

	if !point.InCurve() || !point.InSubGroup() {
		return ErrorNotInSubgroup
	}

	if !sig.R8.InCurve() || !sig.R8.InSubGroup() {
		return ErrorNotInSubgroup
	}

	if sig.S.Cmp(babyjub.SubOrder) >= 0 {
		return ErrorInvalidSignature
	}

	if !pub.VerifyPoseidon(msg, sig) {
		return ErrorBadSignature
	}

	return nil
}

// PackPublicKey serialises a public key into its 32-byte packed form.
func PackPublicKey(pub *babyjub.PublicKey) [PackedPublicKeySize]byte {
	return [PackedPublicKeySize]byte(pub.Compress())
}

// UnpackPublicKey deserialises a packed public key.
//
// Returns ErrorInvalidPoint when no curve point matches the encoding and
// ErrorNotInSubgroup when the decoded point is outside the prime-order
// subgroup.
func UnpackPublicKey(packed [PackedPublicKeySize]byte) (*babyjub.PublicKey, error) {
	comp := babyjub.PublicKeyComp(packed)

	pub, err := comp.Decompress()

	if err != nil {
		return nil, ErrorInvalidPoint
	}

	if !(*babyjub.Point)(pub).InSubGroup() {
		return nil, ErrorNotInSubgroup
	}

	return pub, nil
}

// PackSignature serialises a signature into its 64-byte packed form:
// packed R8 followed by S little-endian.
func PackSignature(sig *babyjub.Signature) [PackedSignatureSize]byte {
	return [PackedSignatureSize]byte(sig.Compress())
}

// UnpackSignature deserialises a packed signature.
func UnpackSignature(packed [PackedSignatureSize]byte) (*babyjub.Signature, error) {
	comp := babyjub.SignatureComp(packed)

	sig, err := comp.Decompress()

	if err != nil {
		return nil, ErrorInvalidPoint
	}

	return sig, nil
}
