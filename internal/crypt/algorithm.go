// Package crypt implements the message and file encryption core: a closed
// set of cipher algorithms, the key-envelope format each of them produces,
// and a registry that dispatches on the algorithm tag.
//
// The wire-level contract (base64 framing, envelope fields, the Vigenere
// char-info format) is fixed; changing it breaks previously stored messages.
package crypt

import (
	"fmt"

	"github.com/guvenli/messenger/internal/common"
)

// Algorithm identifies one of the supported encryption algorithms. The set
// is closed: everything outside the constants below is rejected at parse
// time, so downstream code never sees an unknown tag.
type Algorithm string

const (
	AlgorithmAES      Algorithm = "AES"
	AlgorithmBlowfish Algorithm = "BLOWFISH"
	AlgorithmRSA      Algorithm = "RSA"
	AlgorithmVigenere Algorithm = "VIGENERE"
	AlgorithmBase64   Algorithm = "BASE64"

	// AlgorithmNone marks records stored without encryption, e.g. the
	// placeholder content of file-bearing messages.
	AlgorithmNone Algorithm = "NONE"
)

// ParseAlgorithm validates a wire-level algorithm tag.
func ParseAlgorithm(tag string) (Algorithm, error) {
	switch a := Algorithm(tag); a {
	case AlgorithmAES, AlgorithmBlowfish, AlgorithmRSA, AlgorithmVigenere, AlgorithmBase64, AlgorithmNone:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnsupportedAlgorithm, tag)
}
