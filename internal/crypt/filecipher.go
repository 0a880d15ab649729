package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/guvenli/messenger/internal/common"
)

// FileKey is the key material of one encrypted blob: a fresh 256-bit key
// and GCM nonce generated per file. It is stored alongside the blob's
// metadata record, which means anyone who can read the record can decrypt
// the content; see the design notes before "fixing" this, since separating
// key storage changes the observable contract.
type FileKey struct {
	Key   []byte `json:"key"`
	Nonce []byte `json:"nonce"`
}

// EncryptFile seals content with AES-256-GCM under a fresh key.
func EncryptFile(content []byte) ([]byte, *FileKey, error) {
	key := randBytes(32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}

	nonce := randBytes(aead.NonceSize())
	return aead.Seal(nil, nonce, content, nil), &FileKey{Key: key, Nonce: nonce}, nil
}

// DecryptFile reverses EncryptFile. Unlike the message path, callers must
// treat a failure here as a hard error: authenticated decryption failing
// means the stored ciphertext or key is damaged, and returning raw bytes
// would hand the caller garbage.
func DecryptFile(ciphertext []byte, fk *FileKey) ([]byte, error) {
	if fk == nil || len(fk.Key) == 0 || len(fk.Nonce) == 0 {
		return nil, fmt.Errorf("%w: file key absent", common.ErrKeyMaterialMissing)
	}

	block, err := aes.NewCipher(fk.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	if len(fk.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce size", common.ErrKeyMaterialMissing)
	}

	pt, err := aead.Open(nil, fk.Nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return pt, nil
}
