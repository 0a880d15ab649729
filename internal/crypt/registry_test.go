package crypt

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guvenli/messenger/internal/common"
)

func TestParseAlgorithm(t *testing.T) {
	for _, tag := range []string{"AES", "BLOWFISH", "RSA", "VIGENERE", "BASE64", "NONE"} {
		got, err := ParseAlgorithm(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, Algorithm(tag), got)
	}

	_, err := ParseAlgorithm("ROT13")
	assert.ErrorIs(t, err, common.ErrUnsupportedAlgorithm)

	// Tags are case-sensitive on the wire.
	_, err = ParseAlgorithm("aes")
	assert.ErrorIs(t, err, common.ErrUnsupportedAlgorithm)
}

func TestResolve_NoSuiteForNone(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve(AlgorithmNone)
	assert.ErrorIs(t, err, common.ErrUnsupportedAlgorithm)
}

func TestRoundTrip_AllSuites(t *testing.T) {
	r := NewRegistry()

	plaintexts := []string{
		"",
		"hello",
		"Güvenli Mesaj 123",
		strings.Repeat("block-aligned-16", 8),
	}

	for _, alg := range []Algorithm{AlgorithmAES, AlgorithmBlowfish, AlgorithmVigenere, AlgorithmBase64} {
		suite, err := r.Resolve(alg)
		require.NoError(t, err)

		for _, pt := range plaintexts {
			ct, env, err := suite.Encrypt(pt)
			require.NoError(t, err, "%s encrypt %q", alg, pt)
			require.NotNil(t, env)
			assert.Equal(t, alg, env.Algorithm)

			got, err := suite.Decrypt(ct, env)
			require.NoError(t, err, "%s decrypt %q", alg, pt)
			assert.Equal(t, pt, got, "%s round trip", alg)
		}
	}
}

func TestRoundTrip_RSA(t *testing.T) {
	r := NewRegistry()
	suite, err := r.Resolve(AlgorithmRSA)
	require.NoError(t, err)

	// Keep this list short: every encrypt generates a 2048-bit keypair.
	for _, pt := range []string{"", "kısa mesaj", strings.Repeat("x", 150)} {
		ct, env, err := suite.Encrypt(pt)
		require.NoError(t, err)
		require.NotEmpty(t, env.PrivateKey)
		require.NotEmpty(t, env.PublicKey)

		got, err := suite.Decrypt(ct, env)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestRSA_OversizedPlaintext(t *testing.T) {
	suite := &rsaSuite{}

	// 2048-bit OAEP/SHA-1 caps out at 214 bytes.
	_, _, err := suite.Encrypt(strings.Repeat("x", 215))
	assert.ErrorIs(t, err, common.ErrMessageTooLong)

	_, env, err := suite.Encrypt(strings.Repeat("x", 214))
	require.NoError(t, err)
	require.NotNil(t, env)
}

func TestDecrypt_MismatchedEnvelope(t *testing.T) {
	aes := &aesSuite{}
	bf := &blowfishSuite{}

	ct, env, err := aes.Encrypt("gizli")
	require.NoError(t, err)

	_, err = bf.Decrypt(ct, env)
	assert.ErrorIs(t, err, common.ErrKeyMaterialMissing)

	_, err = aes.Decrypt(ct, nil)
	assert.ErrorIs(t, err, common.ErrKeyMaterialMissing)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	suite := &aesSuite{}
	_, env, err := suite.Encrypt("gizli mesaj")
	require.NoError(t, err)

	_, err = suite.Decrypt("not-base64!!!", env)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)

	// Valid base64 but not block aligned.
	_, err = suite.Decrypt(base64.StdEncoding.EncodeToString([]byte("abc")), env)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestBase64_RevealsContent(t *testing.T) {
	suite := &base64Suite{}

	ct, env, err := suite.Encrypt("plain as day")
	require.NoError(t, err)
	assert.Empty(t, env.Key)

	// The "ciphertext" decodes with no key at all. That is the point of
	// this suite, not a bug.
	raw, err := base64.StdEncoding.DecodeString(ct)
	require.NoError(t, err)
	assert.Equal(t, "plain as day", string(raw))

	got, err := suite.Decrypt(ct, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain as day", got)
}

func TestAES_EnvelopeShape(t *testing.T) {
	suite := &aesSuite{}
	_, env, err := suite.Encrypt("mesaj")
	require.NoError(t, err)

	key, err := base64.StdEncoding.DecodeString(env.Key)
	require.NoError(t, err)
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	require.NoError(t, err)

	assert.Len(t, key, 32)
	assert.Len(t, iv, 16)
}

func TestBlowfish_EnvelopeShape(t *testing.T) {
	suite := &blowfishSuite{}
	_, env, err := suite.Encrypt("mesaj")
	require.NoError(t, err)

	key, err := base64.StdEncoding.DecodeString(env.Key)
	require.NoError(t, err)
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	require.NoError(t, err)

	assert.Len(t, key, 16)
	assert.Len(t, iv, 8)
}

func TestEncrypt_FreshKeyMaterial(t *testing.T) {
	suite := &aesSuite{}

	_, env1, err := suite.Encrypt("aynı mesaj")
	require.NoError(t, err)
	_, env2, err := suite.Encrypt("aynı mesaj")
	require.NoError(t, err)

	assert.NotEqual(t, env1.Key, env2.Key)
	assert.NotEqual(t, env1.IV, env2.IV)
}

func TestErrorsAreTyped(t *testing.T) {
	suite := &aesSuite{}
	_, err := suite.Decrypt("x", &KeyEnvelope{Algorithm: AlgorithmAES})
	if !errors.Is(err, common.ErrKeyMaterialMissing) {
		t.Fatalf("want ErrKeyMaterialMissing, got %v", err)
	}
}
