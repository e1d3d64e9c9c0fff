package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tahmid/projecthub/internal/auth"
	"github.com/tahmid/projecthub/internal/model"
	"github.com/tahmid/projecthub/internal/service"
)

// ProjectHandler serves the project registry endpoints.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreate creates a project with the caller as creator and first
// member.
//
// HTTP: POST /api/projects
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	project, err := h.projects.Create(r.Context(), req.Title, req.Description, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// HandleList returns all projects, optionally filtered.
//
// HTTP: GET /api/projects?search=robotics
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// projectDetail is a project together with its member roster.
type projectDetail struct {
	model.Project
	Members []model.User `json:"members"`
}

// HandleGet returns one project and its team.
//
// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	project, err := h.projects.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	members, err := h.projects.Members(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projectDetail{Project: *project, Members: members})
}

// HandleJoin adds the caller to the project.
//
// HTTP: POST /api/projects/{id}/join
func (h *ProjectHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.projects.Join(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type inviteRequest struct {
	Email string `json:"email"`
}

type inviteResponse struct {
	Outcome service.InviteOutcome `json:"outcome"`
}

// HandleInvite invites a user by email. The outcome (invited, already a
// member, no such user) is a 200 response either way; only permission and
// storage problems are errors.
//
// HTTP: POST /api/projects/{id}/invite
func (h *ProjectHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	outcome, err := h.projects.InviteByEmail(r.Context(), r.PathValue("id"), userID, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inviteResponse{Outcome: outcome})
}

// HandleListMine returns the caller's projects with member counts.
//
// HTTP: GET /api/my/projects
func (h *ProjectHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	summaries, err := h.projects.ListMine(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}
