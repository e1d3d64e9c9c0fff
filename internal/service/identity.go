// Package service contains the business logic layer: validation,
// permission rules and orchestration, between the HTTP handlers and the
// repositories. Services accept primitives and a context, return domain
// models and apperror values, and know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tahmid/projecthub/internal/apperror"
	"github.com/tahmid/projecthub/internal/auth"
	"github.com/tahmid/projecthub/internal/model"
	"github.com/tahmid/projecthub/internal/repository"
)

// eduDomains are the substrings an email must contain to count as an
// educational address. Substring match, not suffix: "alice@school.edu.bd"
// is valid via ".edu.".
var eduDomains = []string{".edu", ".ac.", ".edu."}

// IsEduEmail reports whether the email belongs to the allow-listed
// educational-domain pattern, case-insensitively.
func IsEduEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, domain := range eduDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// IdentityService implements the identity directory: registration,
// email lookup, login tokens, profile edits and the community listing.
//
// There is no password anywhere in this flow. Presenting a registered
// email IS the credential; that weak identity model is an explicit,
// inherited trust assumption of the product, not an oversight.
type IdentityService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewIdentityService creates an IdentityService.
func NewIdentityService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new account.
//
// Fails with a validation error unless the email matches the educational
// domain allow-list, and with a conflict if the email is already
// registered. The uniqueness check is the database's, not a lookup here,
// so two racing registrations cannot both win.
func (s *IdentityService) Register(ctx context.Context, name, email, institution string, role model.Role) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if !IsEduEmail(email) {
		return nil, apperror.ValidationFailed("email", "please use an educational email address")
	}
	if !role.Valid() {
		return nil, apperror.ValidationFailed("role", "role must be Student or Teacher")
	}

	user := &model.User{
		Name:        name,
		Email:       email,
		Institution: strings.TrimSpace(institution),
		Role:        role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// AuthResult bundles the user and their issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login resolves an email to an account and issues a session token.
// An unknown email is a plain NotFound; there is no second factor.
func (s *IdentityService) Login(ctx context.Context, email string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/identity: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// FindByEmail resolves an email to a user. Used by the project registry's
// invitation flow.
func (s *IdentityService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.GetByEmail(ctx, strings.TrimSpace(email))
}

// GetUser returns the user with the given id.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// UpdateProfile rewrites the caller's mutable profile fields. Empty name
// is rejected; empty institution or profilePic clears the field, matching
// the profile form. Email never changes.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID, name, institution string, role model.Role, profilePic string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if !role.Valid() {
		return nil, apperror.ValidationFailed("role", "role must be Student or Teacher")
	}

	user.Name = name
	user.Institution = strings.TrimSpace(institution)
	user.Role = role
	user.ProfilePic = profilePic

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))

	return user, nil
}

// Community returns every user with their involvement stats for the
// community page.
func (s *IdentityService) Community(ctx context.Context) ([]model.CommunityProfile, error) {
	return s.users.ListCommunity(ctx)
}
