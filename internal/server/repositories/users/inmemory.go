package users

import (
	"context"
	"sort"
	"sync"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*models.User)}
}

// Add seeds a user record. Test helper, not part of Repository.
func (r *InMemoryRepository) Add(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *u
	r.byID[u.ID] = &cp
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *InMemoryRepository) List(_ context.Context, excludeID string) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.User
	for _, u := range r.byID {
		if excludeID != "" && u.ID == excludeID {
			continue
		}
		cp := *u
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Email < result[j].Email
	})
	return result, nil
}
