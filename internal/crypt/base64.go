package crypt

import (
	"encoding/base64"
	"fmt"

	"github.com/guvenli/messenger/internal/common"
)

// base64Suite is an encoding, not a cipher: it exists so the algorithm
// picker can offer a "none of the above" option with a uniform interface.
// The output trivially reveals the plaintext and the envelope is empty.
// Nothing here should be mistaken for confidentiality.
type base64Suite struct{}

func (s *base64Suite) Algorithm() Algorithm { return AlgorithmBase64 }

func (s *base64Suite) Encrypt(plaintext string) (string, *KeyEnvelope, error) {
	return base64.StdEncoding.EncodeToString([]byte(plaintext)), &KeyEnvelope{Algorithm: AlgorithmBase64}, nil
}

func (s *base64Suite) Decrypt(ciphertext string, env *KeyEnvelope) (string, error) {
	// No key material is required; a nil envelope is fine here.
	if env != nil && env.Algorithm != AlgorithmBase64 {
		return "", fmt.Errorf("%w: envelope is for %s, not %s", common.ErrKeyMaterialMissing, env.Algorithm, AlgorithmBase64)
	}
	pt, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return string(pt), nil
}
