package keys

import (
	"math/big"
	"strings"

	"github.com/iden3/go-iden3-crypto/constants"
)

// Builder inputs arrive as strings, byte buffers or integers depending on
// the embedder. The ScalarFrom* constructors canonicalise every accepted
// representation into a single reduced field scalar; all internal paths
// handle only the canonical form.

// ScalarFromBigInt canonicalises an integer secret. Nil and negative values
// are rejected with ErrorInvalidScalar.
func ScalarFromBigInt(value *big.Int) (*big.Int, error) {
	if value == nil || value.Sign() < 0 {
		return nil, ErrorInvalidScalar
	}

	return new(big.Int).Mod(value, constants.Q), nil
}

// ScalarFromBytes canonicalises a byte-buffer secret, interpreted as a
// big-endian integer. Empty buffers are rejected.
func ScalarFromBytes(buffer []byte) (*big.Int, error) {
	if len(buffer) == 0 {
		return nil, ErrorInvalidScalar
	}

	return new(big.Int).Mod(new(big.Int).SetBytes(buffer), constants.Q), nil
}

// ScalarFromString canonicalises a string secret.
//
// Decimal strings and 0x-prefixed hex strings parse as integers; any other
// non-empty string is taken as its UTF-8 bytes. Empty strings and malformed
// hex are rejected.
func ScalarFromString(secret string) (*big.Int, error) {
	if secret == "" {
		return nil, ErrorInvalidScalar
	}

	if rest, ok := strings.CutPrefix(secret, "0x"); ok {
		value, valid := new(big.Int).SetString(rest, 16)

		if !valid {
			return nil, ErrorInvalidScalar
		}

		return ScalarFromBigInt(value)
	}

	if value, ok := new(big.Int).SetString(secret, 10); ok {
		return ScalarFromBigInt(value)
	}

	return ScalarFromBytes([]byte(secret))
}
