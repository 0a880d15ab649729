package crypt

import (
	"encoding/json"
	"fmt"

	"github.com/guvenli/messenger/internal/common"
)

// Script records whether a source character was Turkish or plain Latin, so
// the Vigenere suite can restore it after the Latin-alphabet shift.
type Script string

const (
	ScriptLatin   Script = "en"
	ScriptTurkish Script = "tr"
)

// CharTag is the per-character formatting tag recorded by the Vigenere
// suite at encrypt time. On the wire it is a two-element array
// ["tr", true], matching the stored format of the original clients.
type CharTag struct {
	Script Script
	Upper  bool
}

func (t CharTag) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{t.Script, t.Upper})
}

func (t *CharTag) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var s Script
	if err := json.Unmarshal(raw[0], &s); err != nil {
		return err
	}
	var u bool
	if err := json.Unmarshal(raw[1], &u); err != nil {
		return err
	}
	t.Script, t.Upper = s, u
	return nil
}

// KeyEnvelope bundles the key material produced by one encryption
// operation. It is a tagged union: which fields are populated depends on
// Algorithm, and an envelope is only meaningful to the suite that produced
// it. Key, IV and the PEM fields are individually base64-encoded.
type KeyEnvelope struct {
	Algorithm  Algorithm `json:"algorithm"`
	Key        string    `json:"key,omitempty"`
	IV         string    `json:"iv,omitempty"`
	PublicKey  string    `json:"public_key,omitempty"`
	PrivateKey string    `json:"private_key,omitempty"`
	CharInfo   []CharTag `json:"char_info,omitempty"`
}

// check verifies that the envelope exists and was produced by the given
// algorithm. Decrypting with a mismatched suite must fail up front rather
// than produce garbage.
func (e *KeyEnvelope) check(alg Algorithm) error {
	if e == nil {
		return fmt.Errorf("%w: no envelope", common.ErrKeyMaterialMissing)
	}
	if e.Algorithm != alg {
		return fmt.Errorf("%w: envelope is for %s, not %s", common.ErrKeyMaterialMissing, e.Algorithm, alg)
	}
	return nil
}
