package repomanager

import (
	"context"
	"database/sql"

	"github.com/guvenli/messenger/internal/dbx"
	"github.com/guvenli/messenger/internal/server/repositories/blobs"
	"github.com/guvenli/messenger/internal/server/repositories/messages"
	"github.com/guvenli/messenger/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
	Blobs(db dbx.DBTX) blobs.Repository
}
