// Package handler contains the HTTP handlers: the glue between the chi
// router and the service layer. Handlers parse requests, call services,
// and write responses; business rules live one layer down.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tahmid/projecthub/internal/auth"
	"github.com/tahmid/projecthub/internal/model"
	"github.com/tahmid/projecthub/internal/service"
)

// IdentityHandler serves registration, login and profile endpoints.
type IdentityHandler struct {
	identity *service.IdentityService
	logger   *slog.Logger
}

// NewIdentityHandler creates an IdentityHandler.
func NewIdentityHandler(identity *service.IdentityService, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{identity: identity, logger: logger}
}

type registerRequest struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Institution string     `json:"institution"`
	Role        model.Role `json:"role"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/register
func (h *IdentityHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	user, err := h.identity.Register(r.Context(), req.Name, req.Email, req.Institution, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email string `json:"email"`
}

// HandleLogin resolves the email and sets the session cookie.
//
// HTTP: POST /api/login
func (h *IdentityHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	result, err := h.identity.Login(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  time.Now().Add(auth.DefaultTokenLifetime),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/logout
func (h *IdentityHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated caller's profile.
//
// HTTP: GET /api/me
func (h *IdentityHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	user, err := h.identity.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name        string     `json:"name"`
	Institution string     `json:"institution"`
	Role        model.Role `json:"role"`
	ProfilePic  string     `json:"profilePic"`
}

// HandleUpdateProfile rewrites the caller's profile.
//
// HTTP: PUT /api/me
func (h *IdentityHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	user, err := h.identity.UpdateProfile(r.Context(), userID, req.Name, req.Institution, req.Role, req.ProfilePic)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleCommunity lists every user with their involvement stats.
//
// HTTP: GET /api/community
func (h *IdentityHandler) HandleCommunity(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.identity.Community(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}
