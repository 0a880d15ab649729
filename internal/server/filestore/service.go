// Package filestore implements the file path: uploads are encrypted with
// a fresh per-file key before they reach the object store, folder markers
// build a materialized path tree, folder deletion cascades by path prefix.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/logging"
	"github.com/guvenli/messenger/internal/server/clock"
	"github.com/guvenli/messenger/internal/server/models"
	"github.com/guvenli/messenger/internal/server/objstore"
	"github.com/guvenli/messenger/internal/server/repositories/blobs"
)

// folderMarker is the filename stored on zero-length folder rows.
const folderMarker = "_folder"

type Service struct {
	repo  blobs.Repository
	store objstore.Store
	clock clock.Clock
	log   logging.Logger
}

func NewService(repo blobs.Repository, store objstore.Store, clk clock.Clock, log logging.Logger) *Service {
	return &Service{
		repo:  repo,
		store: store,
		clock: clk,
		log:   log.With("component", "filestore"),
	}
}

// Upload encrypts content with a fresh file key, stores the ciphertext in
// the object store and records the metadata row. With a folderID the file
// lands under that folder's path; the folder must exist and belong to the
// uploader.
func (s *Service) Upload(ctx context.Context, ownerID, folderID, filename, contentType string, content []byte) (*models.Blob, error) {
	parentPath := ""
	if folderID != "" {
		folder, err := s.ownedFolder(ctx, ownerID, folderID)
		if err != nil {
			return nil, fmt.Errorf("upload: %w", err)
		}
		parentPath = folder.Path
	}

	b := &models.Blob{
		ID:          uuid.NewString(),
		Filename:    filename,
		OwnerID:     ownerID,
		FolderID:    folderID,
		Path:        parentPath + "/" + filename,
		ContentType: contentType,
		Size:        int64(len(content)),
		UploadedAt:  s.clock.Now().UTC(),
	}

	if err := s.storeEncrypted(ctx, b, content); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return b, nil
}

// UploadAttachment stores a message attachment: encrypted like a personal
// file but addressed to a receiver and kept out of the folder tree.
func (s *Service) UploadAttachment(ctx context.Context, ownerID, receiverID, filename, contentType string, content []byte) (*models.Blob, error) {
	b := &models.Blob{
		ID:          uuid.NewString(),
		Filename:    filename,
		OwnerID:     ownerID,
		ReceiverID:  receiverID,
		ContentType: contentType,
		Size:        int64(len(content)),
		UploadedAt:  s.clock.Now().UTC(),
	}

	if err := s.storeEncrypted(ctx, b, content); err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	return b, nil
}

func (s *Service) storeEncrypted(ctx context.Context, b *models.Blob, content []byte) error {
	encrypted, key, err := crypt.EncryptFile(content)
	if err != nil {
		return err
	}
	b.FileKey = key

	if err := s.store.Put(ctx, b.ID, encrypted); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
	}
	if _, err := s.repo.Create(ctx, b); err != nil {
		if derr := s.store.Delete(ctx, b.ID); derr != nil {
			s.log.Error(ctx, "orphaned content cleanup failed", "blob_id", b.ID, "error", derr)
		}
		return err
	}
	return nil
}

// Fetch returns a blob's metadata and decrypted content. The owner may
// always read; an attachment's receiver may too. A record whose content
// can no longer be decrypted is a hard error on this path.
func (s *Service) Fetch(ctx context.Context, userID, id string) (*models.Blob, []byte, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: %w", err)
	}
	if !b.AccessibleBy(userID) {
		return nil, nil, common.ErrUnauthorized
	}
	if b.IsFolder {
		return nil, nil, common.ErrNotFound
	}

	encrypted, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: %w", err)
	}

	content, err := crypt.DecryptFile(encrypted, b.FileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	return b, content, nil
}

// List returns the owner's personal files, optionally scoped to a folder.
func (s *Service) List(ctx context.Context, ownerID, folderID string) ([]*models.Blob, error) {
	list, err := s.repo.ListFiles(ctx, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return list, nil
}

// Delete removes a single file, content included. Owner only.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if b.OwnerID != userID {
		return common.ErrUnauthorized
	}
	if b.IsFolder {
		return common.ErrInvalidArgument
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Error(ctx, "content delete failed, metadata already gone", "blob_id", id, "error", err)
	}
	return nil
}

// CreateFolder records a root-level folder marker. The name is trimmed
// and must be non-empty.
func (s *Service) CreateFolder(ctx context.Context, ownerID, name string) (*models.Blob, error) {
	return s.createFolder(ctx, ownerID, "", name)
}

// CreateSubfolder records a folder marker under parentID, which must be
// an existing folder owned by the caller.
func (s *Service) CreateSubfolder(ctx context.Context, ownerID, parentID, name string) (*models.Blob, error) {
	if parentID == "" {
		return nil, common.ErrInvalidArgument
	}
	return s.createFolder(ctx, ownerID, parentID, name)
}

func (s *Service) createFolder(ctx context.Context, ownerID, parentID, name string) (*models.Blob, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrInvalidArgument
	}

	parentPath := ""
	if parentID != "" {
		parent, err := s.ownedFolder(ctx, ownerID, parentID)
		if err != nil {
			return nil, fmt.Errorf("create folder: %w", err)
		}
		parentPath = parent.Path
	}

	b := &models.Blob{
		ID:         uuid.NewString(),
		Filename:   folderMarker,
		OwnerID:    ownerID,
		FolderID:   parentID,
		Path:       parentPath + "/" + name,
		IsFolder:   true,
		UploadedAt: s.clock.Now().UTC(),
	}

	if _, err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return b, nil
}

// ListFolders returns the owner's folder markers.
func (s *Service) ListFolders(ctx context.Context, ownerID string) ([]*models.Blob, error) {
	list, err := s.repo.ListFolders(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return list, nil
}

// DeleteFolder removes a folder and everything whose path lies under it,
// then purges the deleted content from the object store.
func (s *Service) DeleteFolder(ctx context.Context, userID, folderID string) error {
	folder, err := s.ownedFolder(ctx, userID, folderID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	ids, err := s.repo.DeleteByPathPrefix(ctx, userID, folder.Path+"/")
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if err := s.repo.Delete(ctx, folderID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("delete folder: %w", err)
	}

	for _, id := range ids {
		if err := s.store.Delete(ctx, id); err != nil {
			s.log.Error(ctx, "content delete failed, metadata already gone", "blob_id", id, "error", err)
		}
	}
	return nil
}

func (s *Service) ownedFolder(ctx context.Context, ownerID, folderID string) (*models.Blob, error) {
	b, err := s.repo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !b.IsFolder {
		return nil, common.ErrNotFound
	}
	if b.OwnerID != ownerID {
		return nil, common.ErrUnauthorized
	}
	return b, nil
}
