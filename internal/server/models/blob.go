package models

import (
	"time"

	"github.com/guvenli/messenger/internal/crypt"
)

// Blob is the metadata record of one stored binary object: an uploaded
// file or a zero-length folder marker. Content bytes live in the object
// store under the blob id; this row carries everything else, including the
// per-file key for encrypted content.
//
// Folders are blobs with IsFolder set and no content. Path is the
// materialized "/"-separated location; a folder's path prefixes the path
// of every descendant, which is what makes cascade deletion a prefix
// query.
type Blob struct {
	ID          string
	Filename    string
	OwnerID     string
	ReceiverID  string // set only for message attachments
	FolderID    string
	Path        string
	ContentType string
	Size        int64
	IsFolder    bool
	FileKey     *crypt.FileKey
	UploadedAt  time.Time
}

// AccessibleBy reports whether userID may read this blob: the owner
// always, and for message attachments the receiver too.
func (b *Blob) AccessibleBy(userID string) bool {
	return b.OwnerID == userID || (b.ReceiverID != "" && b.ReceiverID == userID)
}
