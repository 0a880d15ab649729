// Package messaging implements the message path: encrypt on send, store,
// push to a live receiver, decrypt on history reads.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/logging"
	"github.com/guvenli/messenger/internal/server/clock"
	"github.com/guvenli/messenger/internal/server/models"
	"github.com/guvenli/messenger/internal/server/repositories/messages"
	"github.com/guvenli/messenger/internal/server/repositories/users"
)

// filePlaceholderPrefix marks messages whose content is an attachment
// descriptor instead of user text. Such content is stored and returned
// verbatim, the cipher suites never see it.
const filePlaceholderPrefix = "[FILE:"

// decryptErrorText replaces plaintext in history responses when a stored
// message can no longer be decrypted. The request itself still succeeds.
const decryptErrorText = "Decrypt Error: message could not be decrypted"

// Pusher delivers an event to a user's live connection, best effort.
type Pusher interface {
	Push(ctx context.Context, userID string, payload any) bool
}

// View is the wire shape of one message after the read-side decryption
// policy has been applied.
type View struct {
	ID             string          `json:"id"`
	Content        string          `json:"content"`
	SenderID       string          `json:"senderId"`
	ReceiverID     string          `json:"receiverId"`
	Timestamp      time.Time       `json:"timestamp"`
	IsRead         bool            `json:"isRead"`
	EncryptionType crypt.Algorithm `json:"encryptionType"`
	IsFile         bool            `json:"isFile,omitempty"`
	FileID         string          `json:"fileId,omitempty"`
}

// Event is the frame pushed over a receiver's websocket connection.
type Event struct {
	Type    string `json:"type"`
	Message View   `json:"message"`
}

type Service struct {
	repo    messages.Repository
	users   users.Repository
	ciphers *crypt.Registry
	pusher  Pusher
	clock   clock.Clock
	log     logging.Logger
}

func NewService(repo messages.Repository, usersRepo users.Repository, ciphers *crypt.Registry,
	pusher Pusher, clk clock.Clock, log logging.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   usersRepo,
		ciphers: ciphers,
		pusher:  pusher,
		clock:   clk,
		log:     log.With("component", "messaging"),
	}
}

// Send encrypts content with the requested algorithm, persists the record
// and pushes it to the receiver's live connection if there is one. Push
// failures are logged and swallowed, the message is already durable.
func (s *Service) Send(ctx context.Context, senderID, receiverID, content string, alg crypt.Algorithm) (*models.Message, error) {
	suite, err := s.ciphers.Resolve(alg)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	encrypted, envelope, err := suite.Encrypt(content)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	m := &models.Message{
		ID:               uuid.NewString(),
		SenderID:         senderID,
		ReceiverID:       receiverID,
		Algorithm:        alg,
		EncryptedContent: encrypted,
		Envelope:         envelope,
		CreatedAt:        s.clock.Now().UTC(),
	}

	if _, err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	s.push(ctx, m, content)
	return m, nil
}

// SendFile records an attachment message. The content is a placeholder
// descriptor pointing at the stored blob; the record keeps the algorithm
// tag the client asked for but the descriptor itself is never encrypted.
func (s *Service) SendFile(ctx context.Context, senderID string, blob *models.Blob, alg crypt.Algorithm) (*models.Message, error) {
	descriptor, err := json.Marshal(struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
		Size int64  `json:"size"`
	}{ID: blob.ID, Name: blob.Filename, Type: blob.ContentType, Size: blob.Size})
	if err != nil {
		return nil, fmt.Errorf("send file: %w", err)
	}

	m := &models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: blob.ReceiverID,
		Algorithm:  alg,
		Content:    filePlaceholderPrefix + string(descriptor) + "]",
		IsFile:     true,
		FileID:     blob.ID,
		CreatedAt:  s.clock.Now().UTC(),
	}

	if _, err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("send file: %w", err)
	}

	s.push(ctx, m, m.Content)
	return m, nil
}

// History returns the conversation between two users in ascending order
// of creation. Encrypted records are decrypted; a record that fails to
// decrypt is rendered with a sentinel text instead of failing the call.
func (s *Service) History(ctx context.Context, userID, otherID string) ([]View, error) {
	records, err := s.repo.ListBetween(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	views := make([]View, 0, len(records))
	for _, m := range records {
		views = append(views, s.view(ctx, m))
	}
	return views, nil
}

// MarkRead flips a message's read flag. Only the two participants may do
// this; repeating it on an already-read message succeeds.
func (s *Service) MarkRead(ctx context.Context, userID, messageID string) error {
	m, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if m.SenderID != userID && m.ReceiverID != userID {
		return common.ErrUnauthorized
	}
	if err := s.repo.MarkRead(ctx, messageID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// PurgeByAlgorithm deletes every message encrypted with alg and reports
// how many were removed.
func (s *Service) PurgeByAlgorithm(ctx context.Context, alg crypt.Algorithm) (int64, error) {
	n, err := s.repo.DeleteByAlgorithm(ctx, alg)
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	s.log.Info(ctx, "messages purged", "algorithm", string(alg), "count", n)
	return n, nil
}

// RecentChats lists the users this user has exchanged messages with.
// Partners whose account no longer exists are skipped.
func (s *Service) RecentChats(ctx context.Context, userID string) ([]*models.User, error) {
	partnerIDs, err := s.repo.ListPartners(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("recent chats: %w", err)
	}

	result := make([]*models.User, 0, len(partnerIDs))
	for _, id := range partnerIDs {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

// AllUsers lists every user except the caller.
func (s *Service) AllUsers(ctx context.Context, userID string) ([]*models.User, error) {
	list, err := s.users.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("all users: %w", err)
	}
	return list, nil
}

// FindUser looks a user up by email.
func (s *Service) FindUser(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, common.ErrInvalidArgument
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *Service) push(ctx context.Context, m *models.Message, content string) {
	v := newView(m)
	v.Content = content
	if !s.pusher.Push(ctx, m.ReceiverID, Event{Type: "new_message", Message: v}) {
		s.log.Debug(ctx, "receiver offline, push skipped", "message_id", m.ID, "receiver_id", m.ReceiverID)
	}
}

// view applies the read-side content policy: attachment placeholders pass
// through, encrypted content is decrypted, decryption failures become
// sentinel text.
func (s *Service) view(ctx context.Context, m *models.Message) View {
	v := newView(m)

	if m.IsFile || strings.HasPrefix(m.Content, filePlaceholderPrefix) {
		v.Content = m.Content
		return v
	}

	if m.Algorithm == "" || m.EncryptedContent == "" {
		v.Content = m.Content
		return v
	}

	plaintext, err := s.decrypt(m)
	if err != nil {
		s.log.Warn(ctx, "message decryption failed", "message_id", m.ID, "algorithm", string(m.Algorithm), "error", err)
		v.Content = decryptErrorText
		return v
	}
	v.Content = plaintext
	return v
}

func (s *Service) decrypt(m *models.Message) (string, error) {
	suite, err := s.ciphers.Resolve(m.Algorithm)
	if err != nil {
		return "", err
	}
	return suite.Decrypt(m.EncryptedContent, m.Envelope)
}

func newView(m *models.Message) View {
	return View{
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Timestamp:      m.CreatedAt,
		IsRead:         m.IsRead,
		EncryptionType: m.Algorithm,
		IsFile:         m.IsFile,
		FileID:         m.FileID,
	}
}
