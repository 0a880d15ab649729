package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/logging"
	"github.com/guvenli/messenger/internal/server/models"
	"github.com/guvenli/messenger/internal/server/repositories/messages"
	"github.com/guvenli/messenger/internal/server/repositories/users"
)

type fakePusher struct {
	mu        sync.Mutex
	connected map[string]bool
	events    map[string][]Event
}

func newFakePusher() *fakePusher {
	return &fakePusher{connected: make(map[string]bool), events: make(map[string][]Event)}
}

func (p *fakePusher) Push(_ context.Context, userID string, payload any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected[userID] {
		return false
	}
	p.events[userID] = append(p.events[userID], payload.(Event))
	return true
}

// stepClock hands out strictly increasing timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService(t *testing.T) (*Service, *messages.InMemoryRepository, *users.InMemoryRepository, *fakePusher) {
	t.Helper()
	repo := messages.NewInMemoryRepository()
	usersRepo := users.NewInMemoryRepository()
	pusher := newFakePusher()
	clk := &stepClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo, usersRepo, crypt.NewRegistry(), pusher, clk, logging.NewDefault())
	return svc, repo, usersRepo, pusher
}

func TestSend_PersistsEncrypted(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.Send(ctx, "u-1", "u-2", "gizli mesaj", crypt.AlgorithmAES)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.NotEqual(t, "gizli mesaj", m.EncryptedContent)
	assert.NotNil(t, m.Envelope)

	stored, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Content)
	assert.False(t, stored.IsRead)
}

func TestSend_OfflineReceiverStillPersists(t *testing.T) {
	svc, repo, _, pusher := newTestService(t)
	ctx := context.Background()

	m, err := svc.Send(ctx, "u-1", "u-2", "merhaba", crypt.AlgorithmBlowfish)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, pusher.events["u-2"])
}

func TestSend_PushesPlaintextToConnectedReceiver(t *testing.T) {
	svc, _, _, pusher := newTestService(t)
	ctx := context.Background()
	pusher.connected["u-2"] = true

	m, err := svc.Send(ctx, "u-1", "u-2", "merhaba", crypt.AlgorithmRSA)
	require.NoError(t, err)

	require.Len(t, pusher.events["u-2"], 1)
	ev := pusher.events["u-2"][0]
	assert.Equal(t, "new_message", ev.Type)
	assert.Equal(t, m.ID, ev.Message.ID)
	assert.Equal(t, "merhaba", ev.Message.Content)
	assert.Equal(t, crypt.AlgorithmRSA, ev.Message.EncryptionType)
}

func TestSend_UnsupportedAlgorithm(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Send(context.Background(), "u-1", "u-2", "hi", crypt.Algorithm("ROT13"))
	require.True(t, errors.Is(err, common.ErrUnsupportedAlgorithm))
}

func TestHistory_DecryptsBothDirectionsInOrder(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "u-1", "u-2", "birinci", crypt.AlgorithmAES)
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u-2", "u-1", "ikinci", crypt.AlgorithmVigenere)
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u-1", "u-3", "baskasina", crypt.AlgorithmAES)
	require.NoError(t, err)

	views, err := svc.History(ctx, "u-1", "u-2")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "birinci", views[0].Content)
	assert.Equal(t, "ikinci", views[1].Content)
	assert.True(t, views[0].Timestamp.Before(views[1].Timestamp))
}

func TestHistory_DecryptFailureBecomesSentinel(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "u-1", "u-2", "saglam", crypt.AlgorithmAES)
	require.NoError(t, err)

	// a record whose envelope carries a truncated key
	_, err = repo.Create(ctx, &models.Message{
		ID:               "bad",
		SenderID:         "u-1",
		ReceiverID:       "u-2",
		Algorithm:        crypt.AlgorithmAES,
		EncryptedContent: "bm90LWEtY2lwaGVy",
		Envelope: &crypt.KeyEnvelope{
			Algorithm: crypt.AlgorithmAES,
			Key:       "c2hvcnQ=",
			IV:        "AAAAAAAAAAAAAAAAAAAAAA==",
		},
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	views, err := svc.History(ctx, "u-1", "u-2")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "saglam", views[0].Content)
	assert.Equal(t, decryptErrorText, views[1].Content)
}

func TestSendFile_PlaceholderDescriptor(t *testing.T) {
	svc, _, _, pusher := newTestService(t)
	ctx := context.Background()
	pusher.connected["u-2"] = true

	blob := &models.Blob{
		ID:          "b-1",
		Filename:    "rapor.pdf",
		OwnerID:     "u-1",
		ReceiverID:  "u-2",
		ContentType: "application/pdf",
		Size:        1234,
	}
	m, err := svc.SendFile(ctx, "u-1", blob, crypt.AlgorithmAES)
	require.NoError(t, err)

	want := `[FILE:{"id":"b-1","name":"rapor.pdf","type":"application/pdf","size":1234}]`
	assert.Equal(t, want, m.Content)
	assert.True(t, m.IsFile)
	assert.Equal(t, "b-1", m.FileID)
	assert.Equal(t, crypt.AlgorithmAES, m.Algorithm)
	assert.Empty(t, m.EncryptedContent)

	views, err := svc.History(ctx, "u-1", "u-2")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, want, views[0].Content)
	assert.True(t, views[0].IsFile)
}

func TestMarkRead_ParticipantOnly(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.Send(ctx, "u-1", "u-2", "merhaba", crypt.AlgorithmBase64)
	require.NoError(t, err)

	err = svc.MarkRead(ctx, "u-3", m.ID)
	require.True(t, errors.Is(err, common.ErrUnauthorized))

	require.NoError(t, svc.MarkRead(ctx, "u-2", m.ID))
	require.NoError(t, svc.MarkRead(ctx, "u-2", m.ID), "repeat must succeed")

	views, err := svc.History(ctx, "u-1", "u-2")
	require.NoError(t, err)
	assert.True(t, views[0].IsRead)
}

func TestMarkRead_UnknownMessage(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.MarkRead(context.Background(), "u-1", "ghost")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestPurgeByAlgorithm_CountsOnlyMatching(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, "u-1", "u-2", "rsa mesaj", crypt.AlgorithmRSA)
		require.NoError(t, err)
	}
	_, err := svc.Send(ctx, "u-1", "u-2", "aes mesaj", crypt.AlgorithmAES)
	require.NoError(t, err)

	n, err := svc.PurgeByAlgorithm(ctx, crypt.AlgorithmRSA)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	views, err := svc.History(ctx, "u-1", "u-2")
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestRecentChats_SkipsDeletedAccounts(t *testing.T) {
	svc, _, usersRepo, _ := newTestService(t)
	ctx := context.Background()

	usersRepo.Add(&models.User{ID: "u-2", Email: "ayse@example.com"})

	_, err := svc.Send(ctx, "u-1", "u-2", "merhaba", crypt.AlgorithmAES)
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u-deleted", "u-1", "eski", crypt.AlgorithmAES)
	require.NoError(t, err)

	chats, err := svc.RecentChats(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "u-2", chats[0].ID)
}

func TestAllUsers_ExcludesCaller(t *testing.T) {
	svc, _, usersRepo, _ := newTestService(t)

	usersRepo.Add(&models.User{ID: "u-1", Email: "ali@example.com"})
	usersRepo.Add(&models.User{ID: "u-2", Email: "ayse@example.com"})

	list, err := svc.AllUsers(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u-2", list[0].ID)
}

func TestFindUser(t *testing.T) {
	svc, _, usersRepo, _ := newTestService(t)
	usersRepo.Add(&models.User{ID: "u-2", Email: "ayse@example.com"})

	u, err := svc.FindUser(context.Background(), "ayse@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-2", u.ID)

	_, err = svc.FindUser(context.Background(), "")
	require.True(t, errors.Is(err, common.ErrInvalidArgument))

	_, err = svc.FindUser(context.Background(), "ghost@example.com")
	require.True(t, errors.Is(err, common.ErrNotFound))
}
