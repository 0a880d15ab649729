package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/guvenli/messenger/internal/common"
)

const (
	aesKeySize = 32 // AES-256
	aesIVSize  = aes.BlockSize
)

// aesSuite implements AES-256 in CBC mode with PKCS#7 padding. Ciphertext,
// key and IV travel as three independent base64 strings.
type aesSuite struct{}

func (s *aesSuite) Algorithm() Algorithm { return AlgorithmAES }

func (s *aesSuite) Encrypt(plaintext string) (string, *KeyEnvelope, error) {
	key := randBytes(aesKeySize)
	iv := randBytes(aesIVSize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	env := &KeyEnvelope{
		Algorithm: AlgorithmAES,
		Key:       base64.StdEncoding.EncodeToString(key),
		IV:        base64.StdEncoding.EncodeToString(iv),
	}
	return base64.StdEncoding.EncodeToString(ct), env, nil
}

func (s *aesSuite) Decrypt(ciphertext string, env *KeyEnvelope) (string, error) {
	if err := env.check(AlgorithmAES); err != nil {
		return "", err
	}
	key, iv, err := decodeCBCEnvelope(env, aesKeySize, aesIVSize)
	if err != nil {
		return "", err
	}

	ct, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not base64: %v", common.ErrDecryptionFailed, err)
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not block aligned", common.ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}

	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	unpadded, err := pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// decodeCBCEnvelope extracts and validates the key and IV of a CBC-mode
// envelope (shared by the AES and Blowfish suites).
func decodeCBCEnvelope(env *KeyEnvelope, keySize, ivSize int) (key, iv []byte, err error) {
	if env.Key == "" || env.IV == "" {
		return nil, nil, fmt.Errorf("%w: key or iv absent", common.ErrKeyMaterialMissing)
	}
	key, err = base64.StdEncoding.DecodeString(env.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: key is not base64: %v", common.ErrKeyMaterialMissing, err)
	}
	iv, err = base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: iv is not base64: %v", common.ErrKeyMaterialMissing, err)
	}
	if len(key) != keySize || len(iv) != ivSize {
		return nil, nil, fmt.Errorf("%w: key/iv size mismatch", common.ErrKeyMaterialMissing)
	}
	return key, iv, nil
}
