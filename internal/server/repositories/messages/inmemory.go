package messages

import (
	"context"
	"sort"
	"sync"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]*models.Message
	inserted []string // preserves insertion order for stable sorting
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*models.Message)}
}

func (r *InMemoryRepository) Create(_ context.Context, m *models.Message) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *m
	r.byID[m.ID] = &cp
	r.inserted = append(r.inserted, m.ID)
	return m, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *InMemoryRepository) ListBetween(_ context.Context, userA, userB string) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Message
	for _, id := range r.inserted {
		m := r.byID[id]
		if m == nil {
			continue
		}
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *InMemoryRepository) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	m.IsRead = true
	return nil
}

func (r *InMemoryRepository) DeleteByAlgorithm(_ context.Context, alg crypt.Algorithm) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, m := range r.byID {
		if m.Algorithm == alg {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) ListPartners(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var ids []string
	for _, id := range r.inserted {
		m := r.byID[id]
		if m == nil {
			continue
		}
		var other string
		switch userID {
		case m.SenderID:
			other = m.ReceiverID
		case m.ReceiverID:
			other = m.SenderID
		default:
			continue
		}
		if _, ok := seen[other]; !ok {
			seen[other] = struct{}{}
			ids = append(ids, other)
		}
	}
	return ids, nil
}
