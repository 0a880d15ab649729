package crypt

import (
	"fmt"

	"github.com/guvenli/messenger/internal/common"
)

// Suite is one algorithm's encrypt/decrypt strategy. Implementations are
// stateless; Encrypt draws fresh key material from the CSPRNG on every
// call, and Decrypt is pure with respect to its inputs.
type Suite interface {
	Algorithm() Algorithm

	// Encrypt returns the ciphertext plus the envelope needed to reverse it.
	Encrypt(plaintext string) (string, *KeyEnvelope, error)

	// Decrypt reverses Encrypt. A failure is returned as an error; callers
	// decide whether to surface it or render a placeholder (the message
	// history path does the latter, the file path does not).
	Decrypt(ciphertext string, env *KeyEnvelope) (string, error)
}

// Registry resolves an algorithm tag to its cipher suite.
type Registry struct {
	suites map[Algorithm]Suite
}

// NewRegistry builds a registry covering every supported algorithm.
func NewRegistry() *Registry {
	r := &Registry{suites: make(map[Algorithm]Suite)}
	for _, s := range []Suite{
		&aesSuite{},
		&blowfishSuite{},
		&rsaSuite{},
		&vigenereSuite{key: vigenereKey},
		&base64Suite{},
	} {
		r.suites[s.Algorithm()] = s
	}
	return r
}

// Resolve returns the suite for alg, or ErrUnsupportedAlgorithm. Note that
// AlgorithmNone is a valid wire tag but has no suite: unencrypted records
// never reach a cipher.
func (r *Registry) Resolve(alg Algorithm) (Suite, error) {
	if s, ok := r.suites[alg]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedAlgorithm, alg)
}
