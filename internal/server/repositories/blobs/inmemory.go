package blobs

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]*models.Blob
	inserted []string // preserves insertion order for stable sorting
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*models.Blob)}
}

func (r *InMemoryRepository) Create(_ context.Context, b *models.Blob) (*models.Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *b
	r.byID[b.ID] = &cp
	r.inserted = append(r.inserted, b.ID)
	return b, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*models.Blob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *InMemoryRepository) ListFiles(_ context.Context, ownerID, folderID string) ([]*models.Blob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Blob
	for _, id := range r.inserted {
		b := r.byID[id]
		if b == nil || b.OwnerID != ownerID || b.IsFolder || b.ReceiverID != "" {
			continue
		}
		if folderID != "" && b.FolderID != folderID {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UploadedAt.Before(result[j].UploadedAt)
	})
	return result, nil
}

func (r *InMemoryRepository) ListFolders(_ context.Context, ownerID string) ([]*models.Blob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Blob
	for _, id := range r.inserted {
		b := r.byID[id]
		if b == nil || b.OwnerID != ownerID || !b.IsFolder {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *InMemoryRepository) DeleteByPathPrefix(_ context.Context, ownerID, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, b := range r.byID {
		if b.OwnerID == ownerID && strings.HasPrefix(b.Path, prefix) {
			delete(r.byID, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}
