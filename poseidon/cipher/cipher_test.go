package cipher

import (
	"math/big"
	"testing"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalarGenerator() gopter.Gen {
	return gen.SliceOfN(32, gen.UInt8()).Map(func(bytes []byte) *big.Int {
		x := new(big.Int).SetBytes(bytes)

		return x.Mod(x, babyjub.SubOrder)
	})
}

func testKey() [2]*big.Int {
	return [2]*big.Int{big.NewInt(12345), big.NewInt(67890)}
}

func TestEncryptShape(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{name: "single element", length: 1},
		{name: "full chunk", length: 3},
		{name: "vote message", length: 7},
		{name: "two chunks", length: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext := make([]*big.Int, tt.length)
			for i := range plaintext {
				plaintext[i] = big.NewInt(int64(i + 1))
			}

			ciphertext, err := Encrypt(plaintext, testKey(), 0)

			require.NoError(t, err)
			assert.Len(t, ciphertext, tt.length+1)
		})
	}
}

func TestEncryptEmptyPlaintext(t *testing.T) {
	_, err := Encrypt(nil, testKey(), 0)

	assert.Equal(t, ErrorCipherLengthMismatch, err)
}

func TestDecryptLengthMismatch(t *testing.T) {
	plaintext := []*big.Int{big.NewInt(1), big.NewInt(2)}

	ciphertext, err := Encrypt(plaintext, testKey(), 0)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, testKey(), 0, 3)
	assert.Equal(t, ErrorCipherLengthMismatch, err)

	_, err = Decrypt(ciphertext[:2], testKey(), 0, 2)
	assert.Equal(t, ErrorCipherLengthMismatch, err)
}

func TestDecryptWrongKey(t *testing.T) {
	plaintext := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)}

	ciphertext, err := Encrypt(plaintext, testKey(), 0)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, [2]*big.Int{big.NewInt(1), big.NewInt(2)}, 0, len(plaintext))
	assert.Equal(t, ErrorCipherAuthTagMismatch, err)
}

func TestDecryptWrongNonce(t *testing.T) {
	plaintext := []*big.Int{big.NewInt(7)}

	ciphertext, err := Encrypt(plaintext, testKey(), 5)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, testKey(), 6, 1)
	assert.Equal(t, ErrorCipherAuthTagMismatch, err)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	plaintext := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}

	ciphertext, err := Encrypt(plaintext, testKey(), 0)
	require.NoError(t, err)

	ciphertext[1] = new(big.Int).Add(ciphertext[1], big.NewInt(1))
	ciphertext[1].Mod(ciphertext[1], babyjub.SubOrder)

	_, err = Decrypt(ciphertext, testKey(), 0, len(plaintext))
	assert.Equal(t, ErrorCipherAuthTagMismatch, err)
}

func TestCipherProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("decrypt inverts encrypt", prop.ForAll(
		func(scalars []*big.Int, k0, k1 *big.Int, nonce uint64) bool {
			if len(scalars) == 0 || len(scalars) > 16 {
				return true
			}

			key := [2]*big.Int{k0, k1}

			ciphertext, err := Encrypt(scalars, key, nonce)

			if err != nil {
				return false
			}

			recovered, err := Decrypt(ciphertext, key, nonce, len(scalars))

			if err != nil || len(recovered) != len(scalars) {
				return false
			}

			for i := range scalars {
				if recovered[i].Cmp(scalars[i]) != 0 {
					return false
				}
			}

			return true
		},
		gen.SliceOf(scalarGenerator()),
		scalarGenerator(),
		scalarGenerator(),
		gen.UInt64(),
	))

	properties.Property("encryption is deterministic in key, nonce and plaintext", prop.ForAll(
		func(a, b, k0, k1 *big.Int) bool {
			plaintext := []*big.Int{a, b}
			key := [2]*big.Int{k0, k1}

			first, err1 := Encrypt(plaintext, key, 0)
			second, err2 := Encrypt(plaintext, key, 0)

			if err1 != nil || err2 != nil {
				return false
			}

			for i := range first {
				if first[i].Cmp(second[i]) != 0 {
					return false
				}
			}

			return true
		},
		scalarGenerator(),
		scalarGenerator(),
		scalarGenerator(),
		scalarGenerator(),
	))

	properties.TestingRun(t)
}
