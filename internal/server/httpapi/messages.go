package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/server/messaging"
	"github.com/guvenli/messenger/internal/server/models"
)

// maxAttachmentSize bounds in-memory attachment handling.
const maxAttachmentSize = 32 << 20

type sendMessageRequest struct {
	ReceiverID     string `json:"receiverId"`
	Content        string `json:"content"`
	EncryptionType string `json:"encryptionType"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrInvalidArgument)
		return
	}
	if req.ReceiverID == "" {
		s.writeError(w, r, common.ErrInvalidArgument)
		return
	}

	alg, err := crypt.ParseAlgorithm(req.EncryptionType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.messages.Send(r.Context(), userIDFrom(r), req.ReceiverID, req.Content, alg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, messaging.View{
		ID:             m.ID,
		Content:        req.Content,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Timestamp:      m.CreatedAt,
		IsRead:         m.IsRead,
		EncryptionType: m.Algorithm,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	views, err := s.messages.History(r.Context(), userIDFrom(r), mux.Vars(r)["receiverID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.messages.MarkRead(r.Context(), userIDFrom(r), mux.Vars(r)["messageID"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleClearRSA(w http.ResponseWriter, r *http.Request) {
	n, err := s.messages.PurgeByAlgorithm(r.Context(), crypt.AlgorithmRSA)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleRecentChats(w http.ResponseWriter, r *http.Request) {
	users, err := s.messages.RecentChats(r.Context(), userIDFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, usersToResponse(users))
}

func (s *Server) handleAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.messages.AllUsers(r.Context(), userIDFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, usersToResponse(users))
}

func (s *Server) handleFindUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.messages.FindUser(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(u))
}

// handleUploadAttachment stores an encrypted attachment and records the
// placeholder message pointing at it, in one request.
func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		s.writeError(w, r, common.ErrInvalidArgument)
		return
	}

	receiverID := r.FormValue("receiverId")
	if receiverID == "" {
		s.writeError(w, r, common.ErrInvalidArgument)
		return
	}
	alg, err := crypt.ParseAlgorithm(r.FormValue("encryptionType"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, common.ErrInvalidArgument)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	blob, err := s.files.UploadAttachment(r.Context(), userIDFrom(r), receiverID,
		header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.messages.SendFile(r.Context(), userIDFrom(r), blob, alg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, messaging.View{
		ID:             m.ID,
		Content:        m.Content,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Timestamp:      m.CreatedAt,
		IsRead:         m.IsRead,
		EncryptionType: m.Algorithm,
		IsFile:         m.IsFile,
		FileID:         m.FileID,
	})
}

func (s *Server) handleAttachmentFetch(w http.ResponseWriter, r *http.Request) {
	s.serveBlob(w, r, mux.Vars(r)["fileID"], "inline")
}

func (s *Server) handleAttachmentPreview(w http.ResponseWriter, r *http.Request) {
	s.serveBlob(w, r, mux.Vars(r)["fileID"], "inline")
}

func usersToResponse(users []*models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}
