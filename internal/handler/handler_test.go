package handler

// End-to-end handler tests: real router, real middleware, a throwaway
// SQLite database and filesystem blob store, and a stub sandbox. Only
// code execution is faked.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahmid/projecthub/internal/auth"
	"github.com/tahmid/projecthub/internal/blob/fs"
	"github.com/tahmid/projecthub/internal/model"
	sqliteRepo "github.com/tahmid/projecthub/internal/repository/sqlite"
	"github.com/tahmid/projecthub/internal/sandbox"
	"github.com/tahmid/projecthub/internal/service"
)

// stubExecutor lets a test script the sandbox's answer.
type stubExecutor struct {
	result *sandbox.Result
	err    error
}

func (s *stubExecutor) Execute(_ context.Context, _ sandbox.Request) (*sandbox.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type testEnv struct {
	router *chi.Mux
	exec   *stubExecutor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	blobs, err := fs.New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	require.NoError(t, err)

	env := &testEnv{exec: &stubExecutor{result: &sandbox.Result{Output: "ok\n", Stdout: "ok\n"}}}

	identityService := service.NewIdentityService(db.Users(), tokens, logger)
	projectService := service.NewProjectService(db.Projects(), db.Users(), logger)
	workspace := service.NewWorkspace(db.Projects(), db.Chat(), db.Snapshots(), db.Attachments(), blobs, env.exec, 0, logger)

	identityHandler := NewIdentityHandler(identityService, logger)
	projectHandler := NewProjectHandler(projectService, logger)
	workspaceHandler := NewWorkspaceHandler(workspace, logger)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Post("/register", identityHandler.HandleRegister)
		r.Post("/login", identityHandler.HandleLogin)
		r.Post("/logout", identityHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", identityHandler.HandleMe)
			r.Put("/me", identityHandler.HandleUpdateProfile)
			r.Get("/community", identityHandler.HandleCommunity)

			r.Get("/projects", projectHandler.HandleList)
			r.Post("/projects", projectHandler.HandleCreate)
			r.Get("/projects/{id}", projectHandler.HandleGet)
			r.Post("/projects/{id}/join", projectHandler.HandleJoin)
			r.Post("/projects/{id}/invite", projectHandler.HandleInvite)
			r.Get("/my/projects", projectHandler.HandleListMine)

			r.Get("/projects/{id}/code", workspaceHandler.HandleLoadCode)
			r.Put("/projects/{id}/code", workspaceHandler.HandleSaveCode)
			r.Post("/projects/{id}/run", workspaceHandler.HandleRun)

			r.Get("/projects/{id}/chat", workspaceHandler.HandleRecentChat)
			r.Post("/projects/{id}/chat", workspaceHandler.HandleAppendChat)
			r.Get("/projects/{id}/messages", workspaceHandler.HandleRecentMessages)
			r.Post("/projects/{id}/messages", workspaceHandler.HandleAppendMessage)

			r.Get("/projects/{id}/files", workspaceHandler.HandleListFiles)
			r.Post("/projects/{id}/files", workspaceHandler.HandleUpload)
			r.Get("/projects/{id}/files/{filename}", workspaceHandler.HandleDownload)
		})
	})
	env.router = router

	return env
}

// do sends a JSON request (body may be nil) with an optional session
// cookie and returns the recorded response.
func (env *testEnv) do(t *testing.T, method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.AddCookie(session)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// signup registers a user through the API and logs them in, returning the
// user and the session cookie.
func (env *testEnv) signup(t *testing.T, name, email string) (model.User, *http.Cookie) {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/register", map[string]any{
		"name": name, "email": email, "role": "Student",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, "register failed: %s", rec.Body.String())
	user := decode[model.User](t, rec)

	rec = env.do(t, http.MethodPost, "/api/login", map[string]any{"email": email}, nil)
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return user, c
		}
	}
	t.Fatal("login did not set a session cookie")
	return user, nil
}

// createProject makes a project through the API and returns it.
func (env *testEnv) createProject(t *testing.T, session *http.Cookie, title string) model.Project {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/projects", map[string]any{
		"title": title, "description": "test project",
	}, session)
	require.Equal(t, http.StatusCreated, rec.Code, "create project failed: %s", rec.Body.String())
	return decode[model.Project](t, rec)
}

func projectPath(p model.Project, suffix string) string {
	return fmt.Sprintf("/api/projects/%s%s", p.ID, suffix)
}

// multipartUpload builds a multipart body with one "file" part.
func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/projects", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
