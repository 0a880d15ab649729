package messages

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

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {

	envelope, err := marshalEnvelope(m.Envelope)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO messages (id, sender_id, receiver_id, algorithm, content, encrypted_content, key_envelope, is_read, is_file, file_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id
		 `

	err = r.db.QueryRowContext(ctx, query,
		m.ID, m.SenderID, m.ReceiverID, string(m.Algorithm), m.Content, m.EncryptedContent,
		envelope, m.IsRead, m.IsFile, m.FileID, m.CreatedAt).Scan(&m.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query :=
		`SELECT id, sender_id, receiver_id, algorithm, content, encrypted_content, key_envelope, is_read, is_file, file_id, created_at
		 FROM messages
		 WHERE id = $1
		 `

	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListBetween(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	query :=
		`SELECT id, sender_id, receiver_id, algorithm, content, encrypted_content, key_envelope, is_read, is_file, file_id, created_at
		 FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id string) error {
	query :=
		`UPDATE messages SET is_read = true
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

func (r *PostgresRepository) DeleteByAlgorithm(ctx context.Context, alg crypt.Algorithm) (int64, error) {
	query :=
		`DELETE FROM messages
		 WHERE algorithm = $1
		 `

	res, err := r.db.ExecContext(ctx, query, string(alg))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}

func (r *PostgresRepository) ListPartners(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT DISTINCT other FROM (
		     SELECT receiver_id AS other FROM messages WHERE sender_id = $1
		     UNION ALL
		     SELECT sender_id AS other FROM messages WHERE receiver_id = $1
		 ) partners
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	m := &models.Message{}
	var alg string
	var envelope []byte

	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &alg, &m.Content, &m.EncryptedContent,
		&envelope, &m.IsRead, &m.IsFile, &m.FileID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	m.Algorithm = crypt.Algorithm(alg)
	if len(envelope) > 0 {
		env := &crypt.KeyEnvelope{}
		if err := json.Unmarshal(envelope, env); err != nil {
			return nil, fmt.Errorf("key envelope decode: %w", err)
		}
		m.Envelope = env
	}
	return m, nil
}

func marshalEnvelope(env *crypt.KeyEnvelope) ([]byte, error) {
	if env == nil {
		return nil, nil
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("key envelope encode: %w", err)
	}
	return b, nil
}
