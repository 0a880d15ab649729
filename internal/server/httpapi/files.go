package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/guvenli/messenger/internal/common"
	"github.com/guvenli/messenger/internal/server/models"
)

type fileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploadedBy"`
	UploadDate  time.Time `json:"uploadDate"`
	IsEncrypted bool      `json:"isEncrypted"`
}

type folderResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedBy   string    `json:"createdBy"`
	CreatedDate time.Time `json:"createdDate"`
	ParentID    string    `json:"parentId"`
	Path        string    `json:"path"`
}

type createFolderRequest struct {
	Name string `json:"name"`
}

func toFileResponse(b *models.Blob) fileResponse {
	return fileResponse{
		ID:          b.ID,
		Name:        b.Filename,
		Type:        b.ContentType,
		Size:        b.Size,
		UploadedBy:  b.OwnerID,
		UploadDate:  b.UploadedAt,
		IsEncrypted: b.FileKey != nil,
	}
}

func toFolderResponse(b *models.Blob) folderResponse {
	return folderResponse{
		ID:          b.ID,
		Name:        pathBase(b.Path),
		CreatedBy:   b.OwnerID,
		CreatedDate: b.UploadedAt,
		ParentID:    b.FolderID,
		Path:        b.Path,
	}
}

// pathBase returns the last segment of a "/"-separated materialized path.
func pathBase(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		s.writeError(w, r, common.ErrInvalidArgument)
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

	b, err := s.files.Upload(r.Context(), userIDFrom(r), r.FormValue("folderId"),
		header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toFileResponse(b))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.List(r.Context(), userIDFrom(r), r.URL.Query().Get("folder_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]fileResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toFileResponse(b))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.serveBlob(w, r, mux.Vars(r)["fileID"], "attachment")
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.serveBlob(w, r, mux.Vars(r)["fileID"], "inline")
}

func (s *Server) handleFileFetch(w http.ResponseWriter, r *http.Request) {
	s.serveBlob(w, r, mux.Vars(r)["fileID"], "inline")
}

// serveBlob streams decrypted file content with the stored content type.
// disposition is "inline" for previews and "attachment" for downloads.
func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request, id, disposition string) {
	b, content, err := s.files.Fetch(r.Context(), userIDFrom(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := b.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, b.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
	if _, err := w.Write(content); err != nil {
		s.log.Error(r.Context(), "content write failed", "blob_id", id, "error", err)
	}
}

func (s *Server) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.files.Delete(r.Context(), userIDFrom(r), mux.Vars(r)["fileID"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrInvalidArgument)
		return
	}

	b, err := s.files.CreateFolder(r.Context(), userIDFrom(r), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toFolderResponse(b))
}

func (s *Server) handleCreateSubfolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrInvalidArgument)
		return
	}

	b, err := s.files.CreateSubfolder(r.Context(), userIDFrom(r), mux.Vars(r)["parentID"], req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toFolderResponse(b))
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.ListFolders(r.Context(), userIDFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]folderResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toFolderResponse(b))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.files.DeleteFolder(r.Context(), userIDFrom(r), mux.Vars(r)["folderID"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
