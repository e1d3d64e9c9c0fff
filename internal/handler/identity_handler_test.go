package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahmid/projecthub/internal/model"
)

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/register", map[string]any{
		"name": "Alice", "email": "alice@school.edu", "institution": "State University", "role": "Student",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user := decode[model.User](t, rec)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@school.edu", user.Email)
}

func TestRegisterEndpointRejectsNonEduEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/register", map[string]any{
		"name": "Bob", "email": "bob@mail.com", "role": "Student",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Error)
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Alice", "alice@school.edu")

	rec := env.do(t, http.MethodPost, "/api/register", map[string]any{
		"name": "Mallory", "email": "Alice@School.EDU", "role": "Student",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpointBadJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/register", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	alice, session := env.signup(t, "Alice", "alice@school.edu")

	assert.True(t, session.HttpOnly, "session cookie must be HttpOnly")

	rec := env.do(t, http.MethodGet, "/api/me", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decode[model.User](t, rec)
	assert.Equal(t, alice.ID, me.ID)
}

func TestLoginUnknownEmailEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/login", map[string]any{"email": "nobody@school.edu"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProfileEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, session := env.signup(t, "Alice", "alice@school.edu")

	rec := env.do(t, http.MethodPut, "/api/me", map[string]any{
		"name": "Alice Q.", "institution": "Tech Institute", "role": "Teacher",
	}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[model.User](t, rec)
	assert.Equal(t, "Alice Q.", updated.Name)
	assert.Equal(t, model.RoleTeacher, updated.Role)
	assert.Equal(t, "alice@school.edu", updated.Email, "email must not change")
}

func TestCommunityEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, session := env.signup(t, "Alice", "alice@school.edu")
	env.signup(t, "Carol", "carol@uni.ac.uk")

	rec := env.do(t, http.MethodGet, "/api/community", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)

	profiles := decode[[]model.CommunityProfile](t, rec)
	assert.Len(t, profiles, 2)
}
