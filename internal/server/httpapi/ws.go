package httpapi

import (
	"net/http"

	"github.com/guvenli/messenger/internal/server/ws"
)

// handleWebSocket upgrades the request and binds the connection to the
// authenticated user until the peer disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.log.Warn(r.Context(), "websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := ws.NewClient(conn)
	s.registry.Register(userID, client)

	go client.WritePump()
	client.ReadPump()

	s.registry.Unregister(userID, client)
}
