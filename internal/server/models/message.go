package models

import (
	"time"

	"github.com/guvenli/messenger/internal/crypt"
)

// Message is one stored chat message. Exactly one of Content and
// EncryptedContent is meaningful: file-bearing messages (IsFile) keep a
// plaintext placeholder in Content, everything else keeps ciphertext in
// EncryptedContent together with the envelope that can reverse it.
//
// A record is written once at send time; the only later mutation is the
// IsRead false->true transition.
type Message struct {
	ID               string
	SenderID         string
	ReceiverID       string
	Algorithm        crypt.Algorithm
	Content          string
	EncryptedContent string
	Envelope         *crypt.KeyEnvelope
	IsRead           bool
	IsFile           bool
	FileID           string
	CreatedAt        time.Time
}
