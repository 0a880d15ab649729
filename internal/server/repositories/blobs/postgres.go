package blobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/dbx"
	"github.com/guvenli/messenger/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const blobColumns = `id, filename, owner_id, receiver_id, folder_id, path, content_type, size_bytes, is_folder, file_key, uploaded_at`

func (r *PostgresRepository) Create(ctx context.Context, b *models.Blob) (*models.Blob, error) {

	var fileKey []byte
	if b.FileKey != nil {
		var err error
		fileKey, err = json.Marshal(b.FileKey)
		if err != nil {
			return nil, fmt.Errorf("file key encode: %w", err)
		}
	}

	query :=
		`INSERT INTO blobs (` + blobColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		b.ID, b.Filename, b.OwnerID, b.ReceiverID, b.FolderID, b.Path,
		b.ContentType, b.Size, b.IsFolder, fileKey, b.UploadedAt).Scan(&b.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return b, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Blob, error) {
	query :=
		`SELECT ` + blobColumns + ` FROM blobs
		 WHERE id = $1
		 `

	b, err := scanBlob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListFiles(ctx context.Context, ownerID, folderID string) ([]*models.Blob, error) {
	query :=
		`SELECT ` + blobColumns + ` FROM blobs
		 WHERE owner_id = $1 AND is_folder = false AND receiver_id = '' AND ($2 = '' OR folder_id = $2)
		 ORDER BY uploaded_at ASC
		 `

	return r.list(ctx, query, ownerID, folderID)
}

func (r *PostgresRepository) ListFolders(ctx context.Context, ownerID string) ([]*models.Blob, error) {
	query :=
		`SELECT ` + blobColumns + ` FROM blobs
		 WHERE owner_id = $1 AND is_folder = true
		 ORDER BY path ASC
		 `

	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM blobs
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByPathPrefix(ctx context.Context, ownerID, prefix string) ([]string, error) {
	query :=
		`DELETE FROM blobs
		 WHERE owner_id = $1 AND left(path, length($2)) = $2
		 RETURNING id
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID, prefix)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Blob, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Blob
	for rows.Next() {
		b, err := scanBlob(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlob(row rowScanner) (*models.Blob, error) {
	b := &models.Blob{}
	var fileKey []byte

	err := row.Scan(&b.ID, &b.Filename, &b.OwnerID, &b.ReceiverID, &b.FolderID, &b.Path,
		&b.ContentType, &b.Size, &b.IsFolder, &fileKey, &b.UploadedAt)
	if err != nil {
		return nil, err
	}

	if len(fileKey) > 0 {
		fk := &crypt.FileKey{}
		if err := json.Unmarshal(fileKey, fk); err != nil {
			return nil, fmt.Errorf("file key decode: %w", err)
		}
		b.FileKey = fk
	}
	return b, nil
}
