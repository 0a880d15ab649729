// Package blobs persists metadata records for stored binary objects
// (files and folder markers). Content bytes live in the object store.
package blobs

import (
	"context"

	"github.com/guvenli/messenger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, b *models.Blob) (*models.Blob, error)
	GetByID(ctx context.Context, id string) (*models.Blob, error)

	// ListFiles returns the owner's personal files, optionally scoped to
	// one folder. Folder markers and message attachments never appear here.
	ListFiles(ctx context.Context, ownerID, folderID string) ([]*models.Blob, error)

	// ListFolders returns the owner's folder markers.
	ListFolders(ctx context.Context, ownerID string) ([]*models.Blob, error)

	Delete(ctx context.Context, id string) error

	// DeleteByPathPrefix removes every object of the owner whose path
	// starts with prefix and returns the removed ids so content can be
	// purged from the object store.
	DeleteByPathPrefix(ctx context.Context, ownerID, prefix string) ([]string, error)
}
