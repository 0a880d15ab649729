package crypt

import (
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blowfish"

	"github.com/guvenli/messenger/internal/common"
)

const (
	blowfishKeySize = 16
	blowfishIVSize  = blowfish.BlockSize
)

// blowfishSuite implements Blowfish in CBC mode with PKCS#7 padding to
// 8-byte blocks, framed the same way as the AES suite.
type blowfishSuite struct{}

func (s *blowfishSuite) Algorithm() Algorithm { return AlgorithmBlowfish }

func (s *blowfishSuite) Encrypt(plaintext string) (string, *KeyEnvelope, error) {
	key := randBytes(blowfishKeySize)
	iv := randBytes(blowfishIVSize)

	block, err := blowfish.NewCipher(key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}

	padded := pkcs7Pad([]byte(plaintext), blowfish.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	env := &KeyEnvelope{
		Algorithm: AlgorithmBlowfish,
		Key:       base64.StdEncoding.EncodeToString(key),
		IV:        base64.StdEncoding.EncodeToString(iv),
	}
	return base64.StdEncoding.EncodeToString(ct), env, nil
}

func (s *blowfishSuite) Decrypt(ciphertext string, env *KeyEnvelope) (string, error) {
	if err := env.check(AlgorithmBlowfish); err != nil {
		return "", err
	}
	key, iv, err := decodeCBCEnvelope(env, blowfishKeySize, blowfishIVSize)
	if err != nil {
		return "", err
	}

	ct, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not base64: %v", common.ErrDecryptionFailed, err)
	}
	if len(ct) == 0 || len(ct)%blowfish.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not block aligned", common.ErrDecryptionFailed)
	}

	block, err := blowfish.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}

	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	unpadded, err := pkcs7Unpad(pt, blowfish.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}
