// Package messages persists chat message records.
package messages

import (
	"context"

	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListBetween returns every message exchanged between the two users,
	// in either direction, ordered ascending by creation time.
	ListBetween(ctx context.Context, userA, userB string) ([]*models.Message, error)

	// MarkRead flips is_read to true. Already-read messages are fine;
	// a missing id is ErrNotFound.
	MarkRead(ctx context.Context, id string) error

	// DeleteByAlgorithm removes every record carrying the given algorithm
	// tag and reports how many went away.
	DeleteByAlgorithm(ctx context.Context, alg crypt.Algorithm) (int64, error)

	// ListPartners returns the distinct ids of everyone userID has
	// exchanged at least one message with.
	ListPartners(ctx context.Context, userID string) ([]string, error)
}
