// Package ws tracks which users hold a live websocket connection and
// pushes them JSON events. One connection per user, a newer connection
// replaces the older one.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/guvenli/messenger/internal/logging"
)

type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     logging.Logger
}

func NewRegistry(log logging.Logger) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		log:     log.With("component", "ws"),
	}
}

// Register binds a client to a user id. An existing connection for the
// same user is closed and replaced.
func (r *Registry) Register(userID string, c *Client) {
	r.mu.Lock()
	old := r.clients[userID]
	r.clients[userID] = c
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}
	r.log.Info(context.Background(), "user connected", "user_id", userID)
}

// Unregister removes the binding if c is still the current connection.
// A stale unregister after a replacement is a no-op.
func (r *Registry) Unregister(userID string, c *Client) {
	r.mu.Lock()
	if r.clients[userID] == c {
		delete(r.clients, userID)
	}
	r.mu.Unlock()

	c.Close()
	r.log.Info(context.Background(), "user disconnected", "user_id", userID)
}

func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.clients[userID]
	return ok
}

// Push delivers payload to the user's connection as a JSON frame.
// Returns false when the user is offline or the frame was dropped,
// delivery is best effort and never blocks the caller.
func (r *Registry) Push(ctx context.Context, userID string, payload any) bool {
	r.mu.RLock()
	c := r.clients[userID]
	r.mu.RUnlock()

	if c == nil {
		return false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Error(ctx, "push payload marshal failed", "user_id", userID, "error", err)
		return false
	}

	if !c.enqueue(data) {
		r.log.Warn(ctx, "push dropped, send queue full", "user_id", userID)
		return false
	}
	return true
}
