package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tahmid/projecthub/internal/apperror"
	"github.com/tahmid/projecthub/internal/auth"
	"github.com/tahmid/projecthub/internal/model"
)

func TestIsEduEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@school.edu", true},
		{"alice@school.edu.bd", true},
		{"carol@uni.ac.uk", true},
		{"ALICE@SCHOOL.EDU", true},
		{"bob@mail.com", false},
		{"bob@educate-me.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsEduEmail(tt.email); got != tt.want {
			t.Errorf("IsEduEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func newIdentityService(t *testing.T, store *mockStore) *IdentityService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	return NewIdentityService(store, tokens, testLogger())
}

func TestRegister(t *testing.T) {
	store := newMockStore()
	svc := newIdentityService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@school.edu", "State University", model.RoleStudent)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Error("expected a generated user ID")
	}
	if user.Role != model.RoleStudent {
		t.Errorf("role = %q, want %q", user.Role, model.RoleStudent)
	}

	// Registered user must be findable by email.
	found, err := svc.FindByEmail(ctx, "alice@school.edu")
	if err != nil {
		t.Fatalf("FindByEmail after register: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("FindByEmail returned ID %q, want %q", found.ID, user.ID)
	}
}

func TestRegisterRejectsNonEduEmail(t *testing.T) {
	store := newMockStore()
	svc := newIdentityService(t, store)

	_, err := svc.Register(context.Background(), "Bob", "bob@mail.com", "", model.RoleStudent)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.users) != 0 {
		t.Error("rejected registration must not create a user")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newMockStore()
	svc := newIdentityService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "alice@school.edu", "", model.RoleStudent); err != nil {
		t.Fatalf("first register: %v", err)
	}

	// Same address, different case: still a duplicate.
	_, err := svc.Register(ctx, "Mallory", "ALICE@SCHOOL.EDU", "", model.RoleTeacher)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(store.users) != 1 {
		t.Errorf("user count = %d, want 1", len(store.users))
	}
}

func TestRegisterValidation(t *testing.T) {
	store := newMockStore()
	svc := newIdentityService(t, store)
	ctx := context.Background()

	tests := []struct {
		name  string
		user  string
		email string
		role  model.Role
	}{
		{"empty name", "", "alice@school.edu", model.RoleStudent},
		{"empty email", "Alice", "", model.RoleStudent},
		{"bad role", "Alice", "alice@school.edu", model.Role("Admin")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.user, tt.email, "", tt.role)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	store := newMockStore()
	svc := newIdentityService(t, store)
	ctx := context.Background()

	alice := registerUser(t, store, "Alice", "alice@school.edu")

	result, err := svc.Login(ctx, "alice@school.edu")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.User.ID != alice.ID {
		t.Errorf("logged in as %q, want %q", result.User.ID, alice.ID)
	}
	if result.Token == "" {
		t.Error("expected a session token")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := newMockStore()
	svc := newIdentityService(t, store)

	_, err := svc.Login(context.Background(), "nobody@school.edu")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	store := newMockStore()
	svc := newIdentityService(t, store)
	ctx := context.Background()

	alice := registerUser(t, store, "Alice", "alice@school.edu")

	updated, err := svc.UpdateProfile(ctx, alice.ID, "Alice Q.", "Tech Institute", model.RoleTeacher, "pic.png")
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.Name != "Alice Q." || updated.Institution != "Tech Institute" {
		t.Errorf("profile not updated: %+v", updated)
	}
	if updated.Email != "alice@school.edu" {
		t.Errorf("email changed to %q; it must be immutable", updated.Email)
	}

	// Empty name is rejected and changes nothing.
	_, err = svc.UpdateProfile(ctx, alice.ID, "  ", "", model.RoleStudent, "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	current, _ := svc.GetUser(ctx, alice.ID)
	if current.Name != "Alice Q." {
		t.Errorf("name = %q after rejected update, want %q", current.Name, "Alice Q.")
	}
}

func TestCommunityStats(t *testing.T) {
	store := newMockStore()
	svc := newIdentityService(t, store)
	ctx := context.Background()

	alice := registerUser(t, store, "Alice", "alice@school.edu")
	registerUser(t, store, "Carol", "carol@uni.ac.uk")

	project := &model.Project{Title: "Sorting Lab", CreatedBy: alice.ID}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := store.Save(ctx, &model.CodeSnapshot{ProjectID: project.ID, Code: "a = 1\nb = 2\nprint(a + b)\n"}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	profiles, err := svc.Community(ctx)
	if err != nil {
		t.Fatalf("Community returned error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("profile count = %d, want 2", len(profiles))
	}

	byEmail := make(map[string]model.CommunityProfile)
	for _, p := range profiles {
		byEmail[strings.ToLower(p.Email)] = p
	}
	if got := byEmail["alice@school.edu"]; got.ProjectsInvolved != 1 || got.LinesOfCode != 3 {
		t.Errorf("alice stats = %d projects, %d lines; want 1, 3", got.ProjectsInvolved, got.LinesOfCode)
	}
	if got := byEmail["carol@uni.ac.uk"]; got.ProjectsInvolved != 0 || got.LinesOfCode != 0 {
		t.Errorf("carol stats = %d projects, %d lines; want 0, 0", got.ProjectsInvolved, got.LinesOfCode)
	}
}
