// Package users reads account records. Registration happens in an
// external identity service, so this repository is read-only.
package users

import (
	"context"

	"github.com/guvenli/messenger/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns every user except the one with excludeID. An empty
	// excludeID returns everyone.
	List(ctx context.Context, excludeID string) ([]*models.User, error)
}
