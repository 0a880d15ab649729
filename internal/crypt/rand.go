package crypt

import "crypto/rand"

// randBytes returns n bytes from the CSPRNG. crypto/rand.Read does not
// fail on supported platforms; if it ever does, encrypting is unsafe and
// stopping is the only sound option.
func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
