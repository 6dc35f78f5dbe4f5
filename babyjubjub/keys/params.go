package keys

import "errors"

// Key serialisation constants
const (
	// PackedPublicKeySize defines the byte length of a packed public key:
	// the little-endian y coordinate with the sign of x in the top bit.
	PackedPublicKeySize = 32

	// PackedSignatureSize defines the byte length of a packed signature:
	// the packed R8 point followed by S as a 32-byte little-endian scalar.
	PackedSignatureSize = 64
)

var (
	// ErrorInvalidScalar is returned when a secret supplied as a string,
	// byte buffer or integer cannot be canonicalised into a field scalar.
	ErrorInvalidScalar = errors.New("invalid scalar")

	// ErrorInvalidPoint is returned when a packed public key cannot be
	// decompressed into a point on the curve.
	ErrorInvalidPoint = errors.New("invalid point")

	// ErrorNotInSubgroup is returned when a received public key or
	// signature point fails the prime-order subgroup check.
	ErrorNotInSubgroup = errors.New("point not in subgroup")

	// ErrorInvalidSignature is returned when a signature scalar S is not
	// smaller than the subgroup order.
	ErrorInvalidSignature = errors.New("s is greater than suborder")

	// ErrorBadSignature is returned when a well-formed signature fails
	// verification against the message and public key.
	ErrorBadSignature = errors.New("signature verification failed")

	// ErrorMessageNotInField is returned when a message to sign or verify
	// is not a reduced field element.
	ErrorMessageNotInField = errors.New("message not inside finite field")
)
