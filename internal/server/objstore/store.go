// Package objstore stores encrypted blob content addressed by blob id.
// Metadata lives in the blobs repository, only the bytes live here.
package objstore

import "context"

type Store interface {
	// Put writes the full content for a blob id, replacing any previous
	// content stored under the same id.
	Put(ctx context.Context, id string, data []byte) error

	// Get returns the full content for a blob id.
	Get(ctx context.Context, id string) ([]byte, error)

	// Delete removes the content for a blob id. Deleting an unknown id
	// is not an error.
	Delete(ctx context.Context, id string) error
}
