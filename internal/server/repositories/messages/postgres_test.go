package messages

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var messageColumns = []string{
	"id", "sender_id", "receiver_id", "algorithm", "content", "encrypted_content",
	"key_envelope", "is_read", "is_file", "file_id", "created_at",
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+messages\s*\(.+\)\s*VALUES\s*\(.+\)\s*RETURNING\s+id\s*$`
	mock.ExpectQuery(q).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("m-1"))

	m := &models.Message{
		ID:               "m-1",
		SenderID:         "u-1",
		ReceiverID:       "u-2",
		Algorithm:        crypt.AlgorithmAES,
		EncryptedContent: "Y2lwaGVydGV4dA==",
		Envelope:         &crypt.KeyEnvelope{Algorithm: crypt.AlgorithmAES, Key: "a2V5", IV: "aXY="},
		CreatedAt:        time.Now(),
	}
	got, err := repo.Create(context.Background(), m)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "m-1" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+messages\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetByID_DecodesEnvelope(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+messages\s+WHERE\s+id\s*=\s*\$1\s*$`
	rows := sqlmock.NewRows(messageColumns).AddRow(
		"m-1", "u-1", "u-2", "AES", "", "Y2lwaGVydGV4dA==",
		[]byte(`{"algorithm":"AES","key":"a2V5","iv":"aXY="}`), false, false, "", time.Now())
	mock.ExpectQuery(q).WithArgs("m-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Envelope == nil || got.Envelope.Key != "a2V5" {
		t.Fatalf("envelope not decoded: %+v", got.Envelope)
	}
	if got.Algorithm != crypt.AlgorithmAES {
		t.Fatalf("unexpected algorithm: %v", got.Algorithm)
	}
}

func TestListBetween_OrdersByCreatedAt(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+messages\s+WHERE\s+\(sender_id\s*=\s*\$1\s+AND\s+receiver_id\s*=\s*\$2\)\s+OR\s+\(sender_id\s*=\s*\$2\s+AND\s+receiver_id\s*=\s*\$1\)\s+ORDER\s+BY\s+created_at\s+ASC\s*$`
	now := time.Now()
	rows := sqlmock.NewRows(messageColumns).
		AddRow("m-1", "u-1", "u-2", "BASE64", "", "aGk=", nil, false, false, "", now).
		AddRow("m-2", "u-2", "u-1", "BASE64", "", "eW8=", nil, false, false, "", now.Add(time.Second))
	mock.ExpectQuery(q).WithArgs("u-1", "u-2").WillReturnRows(rows)

	got, err := repo.ListBetween(context.Background(), "u-1", "u-2")
	if err != nil {
		t.Fatalf("ListBetween error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m-1" || got[1].ID != "m-2" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestMarkRead_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+messages\s+SET\s+is_read\s*=\s*true\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestDeleteByAlgorithm_ReturnsCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+messages\s+WHERE\s+algorithm\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("RSA").WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByAlgorithm(context.Background(), crypt.AlgorithmRSA)
	if err != nil {
		t.Fatalf("DeleteByAlgorithm error: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3 deleted, got %d", n)
	}
}
