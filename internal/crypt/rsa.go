package crypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/guvenli/messenger/internal/common"
)

const rsaKeyBits = 2048

// rsaSuite generates a fresh 2048-bit keypair for every message and
// encrypts with OAEP (SHA-1, matching the stored history of the original
// deployment). Both PEM keys travel base64-wrapped inside the envelope,
// which makes RSA here a framing exercise rather than a security gain; the
// expense of a keypair per message is the price of that contract.
type rsaSuite struct{}

func (s *rsaSuite) Algorithm() Algorithm { return AlgorithmRSA }

func (s *rsaSuite) Encrypt(plaintext string) (string, *KeyEnvelope, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return "", nil, fmt.Errorf("%w: keypair generation: %v", common.ErrEncryptionFailed, err)
	}

	ct, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, &key.PublicKey, []byte(plaintext), nil)
	if err != nil {
		if errors.Is(err, rsa.ErrMessageTooLong) {
			return "", nil, fmt.Errorf("%w: %d bytes exceed the OAEP capacity of a %d-bit key",
				common.ErrMessageTooLong, len(plaintext), rsaKeyBits)
		}
		return "", nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	env := &KeyEnvelope{
		Algorithm:  AlgorithmRSA,
		PublicKey:  base64.StdEncoding.EncodeToString(pubPEM),
		PrivateKey: base64.StdEncoding.EncodeToString(privPEM),
	}
	return base64.StdEncoding.EncodeToString(ct), env, nil
}

func (s *rsaSuite) Decrypt(ciphertext string, env *KeyEnvelope) (string, error) {
	if err := env.check(AlgorithmRSA); err != nil {
		return "", err
	}
	if env.PrivateKey == "" {
		return "", fmt.Errorf("%w: private key absent", common.ErrKeyMaterialMissing)
	}

	pemBytes, err := base64.StdEncoding.DecodeString(env.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("%w: private key is not base64: %v", common.ErrKeyMaterialMissing, err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return "", fmt.Errorf("%w: private key is not PEM", common.ErrKeyMaterialMissing)
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrKeyMaterialMissing, err)
	}

	ct, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not base64: %v", common.ErrDecryptionFailed, err)
	}

	pt, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, key, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return string(pt), nil
}
