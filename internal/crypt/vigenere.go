package crypt

import (
	"fmt"
	"unicode"

	"github.com/guvenli/messenger/internal/common"
)

// vigenereKey is the fixed key of the classical Vigenere suite. It is a
// deliberate part of the stored-message contract, not a secret.
const vigenereKey = "GUVENLI"

// The suite operates over the Latin alphabet. Turkish letters are folded
// onto their nearest Latin neighbour before the shift and restored from the
// per-character tags afterward.
var (
	foldToLatin = map[rune]rune{
		'Ğ': 'G', 'Ü': 'U', 'Ş': 'S', 'İ': 'I', 'Ö': 'O', 'Ç': 'C',
		'ğ': 'g', 'ü': 'u', 'ş': 's', 'ı': 'i', 'ö': 'o', 'ç': 'c',
	}
	turkishUpper = map[rune]rune{'G': 'Ğ', 'U': 'Ü', 'S': 'Ş', 'I': 'İ', 'O': 'Ö', 'C': 'Ç'}
	turkishLower = map[rune]rune{'G': 'ğ', 'U': 'ü', 'S': 'ş', 'I': 'ı', 'O': 'ö', 'C': 'ç'}
)

// vigenereSuite implements the Vigenere shift with Turkish script folding.
// Two quirks are load-bearing for compatibility with stored ciphertext:
// the key index advances on every output rune, alphabetic or not, and the
// (script, upper) tag sequence recorded at encrypt time is what restores
// the original formatting on decrypt.
type vigenereSuite struct {
	key string
}

func (s *vigenereSuite) Algorithm() Algorithm { return AlgorithmVigenere }

func (s *vigenereSuite) Encrypt(plaintext string) (string, *KeyEnvelope, error) {
	runes := []rune(plaintext)
	tags := make([]CharTag, len(runes))
	folded := make([]rune, len(runes))

	for i, c := range runes {
		if l, ok := foldToLatin[c]; ok {
			tags[i] = CharTag{Script: ScriptTurkish, Upper: unicode.IsUpper(c)}
			folded[i] = l
		} else {
			tags[i] = CharTag{Script: ScriptLatin, Upper: unicode.IsUpper(c)}
			folded[i] = c
		}
	}

	out := s.shift(folded, tags, true)

	env := &KeyEnvelope{
		Algorithm: AlgorithmVigenere,
		Key:       s.key,
		CharInfo:  tags,
	}
	return string(out), env, nil
}

func (s *vigenereSuite) Decrypt(ciphertext string, env *KeyEnvelope) (string, error) {
	if err := env.check(AlgorithmVigenere); err != nil {
		return "", err
	}
	if env.Key == "" {
		return "", fmt.Errorf("%w: vigenere key absent", common.ErrKeyMaterialMissing)
	}

	runes := []rune(ciphertext)
	folded := make([]rune, len(runes))
	for i, c := range runes {
		if l, ok := foldToLatin[c]; ok {
			folded[i] = l
		} else {
			folded[i] = c
		}
	}

	// Tags beyond the recorded sequence default to Latin uppercase.
	tags := make([]CharTag, len(runes))
	for i := range tags {
		if i < len(env.CharInfo) {
			tags[i] = env.CharInfo[i]
		} else {
			tags[i] = CharTag{Script: ScriptLatin, Upper: true}
		}
	}

	dec := &vigenereSuite{key: env.Key}
	return string(dec.shift(folded, tags, false)), nil
}

// shift applies the Vigenere transform in the given direction and restores
// per-rune formatting from tags. Runes outside A-Z after case folding pass
// through unchanged but still consume a key position.
func (s *vigenereSuite) shift(folded []rune, tags []CharTag, encrypt bool) []rune {
	key := []rune(asciiUpper(s.key))
	out := make([]rune, 0, len(folded))

	for i, c := range folded {
		u := c
		if u >= 'a' && u <= 'z' {
			u -= 'a' - 'A'
		}
		if u < 'A' || u > 'Z' {
			out = append(out, c)
			continue
		}

		k := key[i%len(key)] - 'A'
		var v rune
		if encrypt {
			v = (u - 'A' + k) % 26
		} else {
			v = (u - 'A' - k + 26) % 26
		}
		out = append(out, restoreRune(v+'A', tags[i]))
	}
	return out
}

// restoreRune maps a shifted uppercase Latin rune back to the script and
// case recorded in its tag.
func restoreRune(c rune, tag CharTag) rune {
	if tag.Script == ScriptTurkish {
		if tag.Upper {
			if t, ok := turkishUpper[c]; ok {
				return t
			}
		} else if t, ok := turkishLower[c]; ok {
			return t
		}
		// The shifted rune has no Turkish counterpart; fall through to the
		// Latin case rule.
	}
	if !tag.Upper {
		return c + ('a' - 'A')
	}
	return c
}

func asciiUpper(s string) string {
	b := []rune(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
