// Package httpapi exposes the messaging and file services over HTTP and
// hands websocket connections to the connection registry.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/guvenli/messenger/internal/logging"
	"github.com/guvenli/messenger/internal/server/filestore"
	"github.com/guvenli/messenger/internal/server/messaging"
	"github.com/guvenli/messenger/internal/server/ws"
)

type Server struct {
	messages *messaging.Service
	files    *filestore.Service
	registry *ws.Registry
	secret   []byte
	log      logging.Logger
	upgrader websocket.Upgrader
}

func NewServer(messages *messaging.Service, files *filestore.Service, registry *ws.Registry,
	secret []byte, log logging.Logger) *Server {
	return &Server{
		messages: messages,
		files:    files,
		registry: registry,
		secret:   secret,
		log:      log.With("component", "httpapi"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// cross-origin access is controlled at the proxy
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router builds the full route table. Every route below the two API
// subtrees requires a valid access token.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	m := r.PathPrefix("/api/messages").Subrouter()
	m.Use(s.authMiddleware)
	m.HandleFunc("/all-users", s.handleAllUsers).Methods(http.MethodGet)
	m.HandleFunc("/recent-chats", s.handleRecentChats).Methods(http.MethodGet)
	m.HandleFunc("/find-user", s.handleFindUser).Methods(http.MethodGet)
	m.HandleFunc("/send-message", s.handleSendMessage).Methods(http.MethodPost)
	m.HandleFunc("/upload-file", s.handleUploadAttachment).Methods(http.MethodPost)
	m.HandleFunc("/clear-rsa", s.handleClearRSA).Methods(http.MethodDelete)
	m.HandleFunc("/files/preview/{fileID}", s.handleAttachmentPreview).Methods(http.MethodGet)
	m.HandleFunc("/files/{fileID}", s.handleAttachmentFetch).Methods(http.MethodGet)
	m.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	m.HandleFunc("/{messageID}/read", s.handleMarkRead).Methods(http.MethodPut)
	m.HandleFunc("/{receiverID}", s.handleHistory).Methods(http.MethodGet)

	f := r.PathPrefix("/api/files").Subrouter()
	f.Use(s.authMiddleware)
	f.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	f.HandleFunc("/list", s.handleList).Methods(http.MethodGet)
	f.HandleFunc("/download/{fileID}", s.handleDownload).Methods(http.MethodGet)
	f.HandleFunc("/preview/{fileID}", s.handlePreview).Methods(http.MethodGet)
	f.HandleFunc("/files/{fileID}", s.handleFileFetch).Methods(http.MethodGet)
	f.HandleFunc("/files/{fileID}", s.handleFileDelete).Methods(http.MethodDelete)
	f.HandleFunc("/folders", s.handleCreateFolder).Methods(http.MethodPost)
	f.HandleFunc("/folders", s.handleListFolders).Methods(http.MethodGet)
	f.HandleFunc("/folders/{folderID}", s.handleDeleteFolder).Methods(http.MethodDelete)
	f.HandleFunc("/folders/{parentID}/subfolders", s.handleCreateSubfolder).Methods(http.MethodPost)

	return r
}
