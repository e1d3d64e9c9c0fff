package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tahmid/projecthub/internal/auth"
	"github.com/tahmid/projecthub/internal/model"
	"github.com/tahmid/projecthub/internal/sandbox"
	"github.com/tahmid/projecthub/internal/service"
)

// maxUploadBytes bounds how much of an upload we are willing to buffer.
const maxUploadBytes = 16 << 20 // 16 MB

// allowedExtensions is the upload allow-list, enforced here at the HTTP
// boundary. The attachment registry itself accepts any filename; what
// kinds of files the platform admits is a presentation-edge policy.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".csv":  true,
	".xlsx": true,
}

// WorkspaceHandler serves the per-project workspace endpoints: the code
// snapshot, execution, the two chat channels and file attachments.
type WorkspaceHandler struct {
	workspace *service.Workspace
	logger    *slog.Logger
}

// NewWorkspaceHandler creates a WorkspaceHandler.
func NewWorkspaceHandler(workspace *service.Workspace, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: workspace, logger: logger}
}

// --- Code snapshot ---

type codeResponse struct {
	Code string `json:"code"`
}

// HandleLoadCode returns the project's saved code ("" if none).
//
// HTTP: GET /api/projects/{id}/code
func (h *WorkspaceHandler) HandleLoadCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.workspace.LoadCode(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codeResponse{Code: code})
}

type saveCodeRequest struct {
	Code string `json:"code"`
}

// HandleSaveCode upserts the project's code snapshot.
//
// HTTP: PUT /api/projects/{id}/code
func (h *WorkspaceHandler) HandleSaveCode(w http.ResponseWriter, r *http.Request) {
	var req saveCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	if err := h.workspace.SaveCode(r.Context(), r.PathValue("id"), req.Code); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Execution ---

type runRequest struct {
	Code string `json:"code"`
}

// HandleRun executes the submitted code in the sandbox and returns the
// result, including output captured before a timeout. Launch failures
// come back as a structured execution_failed response, never a panic.
//
// HTTP: POST /api/projects/{id}/run
func (h *WorkspaceHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "code cannot be empty"})
		return
	}

	result, err := h.workspace.Run(r.Context(), r.PathValue("id"), userID, req.Code)
	if err != nil {
		if errors.Is(err, sandbox.ErrExecutionFailed) {
			writeJSON(w, http.StatusBadGateway, ErrorResponse{
				Error:   "execution_failed",
				Message: err.Error(),
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- Chat ---

type appendChatRequest struct {
	Message string `json:"message"`
}

// handleAppend posts a message to one channel.
func (h *WorkspaceHandler) handleAppend(w http.ResponseWriter, r *http.Request, channel model.ChatChannel) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req appendChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	msg, err := h.workspace.AppendChat(r.Context(), channel, r.PathValue("id"), userID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// handleRecent returns recent messages in the channel's display order.
func (h *WorkspaceHandler) handleRecent(w http.ResponseWriter, r *http.Request, channel model.ChatChannel) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	msgs, err := h.workspace.RecentChat(r.Context(), channel, r.PathValue("id"), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

// HandleAppendChat posts to the inline project chat.
//
// HTTP: POST /api/projects/{id}/chat
func (h *WorkspaceHandler) HandleAppendChat(w http.ResponseWriter, r *http.Request) {
	h.handleAppend(w, r, model.ChannelChat)
}

// HandleRecentChat reads the inline project chat, chronological order.
//
// HTTP: GET /api/projects/{id}/chat
func (h *WorkspaceHandler) HandleRecentChat(w http.ResponseWriter, r *http.Request) {
	h.handleRecent(w, r, model.ChannelChat)
}

// HandleAppendMessage posts to the project message board.
//
// HTTP: POST /api/projects/{id}/messages
func (h *WorkspaceHandler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	h.handleAppend(w, r, model.ChannelMessages)
}

// HandleRecentMessages reads the message board, newest first.
//
// HTTP: GET /api/projects/{id}/messages
func (h *WorkspaceHandler) HandleRecentMessages(w http.ResponseWriter, r *http.Request) {
	h.handleRecent(w, r, model.ChannelMessages)
}

// --- Files ---

// HandleUpload accepts one multipart file upload for the project.
//
// HTTP: POST /api/projects/{id}/files  (multipart field "file")
func (h *WorkspaceHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "a file upload is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "file type is not allowed",
		})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "could not read uploaded file"})
		return
	}

	att, err := h.workspace.Upload(r.Context(), r.PathValue("id"), userID, header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, att)
}

// HandleListFiles returns the project's attachment records.
//
// HTTP: GET /api/projects/{id}/files
func (h *WorkspaceHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.workspace.ListFiles(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// HandleDownload streams an attachment's bytes back to the caller.
//
// HTTP: GET /api/projects/{id}/files/{filename}
func (h *WorkspaceHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	rc, err := h.workspace.OpenFile(r.Context(), r.PathValue("id"), filename)
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "file not found"})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("failed to stream attachment", slog.String("error", err.Error()))
	}
}
