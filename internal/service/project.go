package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tahmid/projecthub/internal/apperror"
	"github.com/tahmid/projecthub/internal/model"
	"github.com/tahmid/projecthub/internal/repository"
)

// Validation constants for the project registry.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
)

// InviteOutcome is the user-facing result of an invitation. AlreadyMember
// and UserNotFound are ordinary outcomes to display, not failures, so
// they travel as values rather than errors.
type InviteOutcome string

const (
	Invited       InviteOutcome = "invited"
	AlreadyMember InviteOutcome = "already_member"
	UserNotFound  InviteOutcome = "user_not_found"
)

// ProjectService implements the project registry: creation, membership,
// invitations and the project listings.
type ProjectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		users:    users,
		logger:   logger,
	}
}

// Create validates and creates a project. The repository inserts the
// project and the creator's membership atomically, so there is no window
// in which the project exists without its creator as a member.
func (s *ProjectService) Create(ctx context.Context, title, description, creatorID string) (*model.Project, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "project title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("project title must be %d characters or less", MaxTitleLength))
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("project description must be %d characters or less", MaxDescriptionLength))
	}

	project := &model.Project{
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedBy:   creatorID,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		s.logger.Error("failed to create project",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("project created",
		slog.String("projectID", project.ID),
		slog.String("creatorID", creatorID),
	)

	return project, nil
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "project ID is required")
	}
	return s.projects.GetByID(ctx, id)
}

// Join adds the user to the project's member set. Calling it again for
// the same pair returns a conflict and changes nothing; the storage
// layer's unique constraint decides, so concurrent joins cannot both
// insert.
func (s *ProjectService) Join(ctx context.Context, projectID, userID string) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return err
	}

	member := model.Membership{ProjectID: projectID, UserID: userID}
	if err := s.projects.AddMember(ctx, &member); err != nil {
		return err
	}

	s.logger.Info("user joined project",
		slog.String("projectID", projectID),
		slog.String("userID", userID),
	)

	return nil
}

// InviteByEmail resolves an email to a user and adds them to the project.
// Only the project creator may invite; that rule lives here, not in the
// presentation layer. An unknown email or an existing member are reported
// as outcomes and mutate nothing.
func (s *ProjectService) InviteByEmail(ctx context.Context, projectID, inviterID, email string) (InviteOutcome, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return "", err
	}

	if project.CreatedBy != inviterID {
		return "", apperror.Forbidden("only the project creator can invite users")
	}

	invitee, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return UserNotFound, nil
		}
		return "", err
	}

	member := model.Membership{ProjectID: projectID, UserID: invitee.ID}
	if err := s.projects.AddMember(ctx, &member); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return AlreadyMember, nil
		}
		return "", err
	}

	s.logger.Info("user invited to project",
		slog.String("projectID", projectID),
		slog.String("inviterID", inviterID),
		slog.String("inviteeID", invitee.ID),
	)

	return Invited, nil
}

// List returns projects matching an optional search filter, in a stable
// order.
func (s *ProjectService) List(ctx context.Context, search string) ([]model.Project, error) {
	return s.projects.List(ctx, strings.TrimSpace(search))
}

// ListMine returns the caller's projects with member counts.
func (s *ProjectService) ListMine(ctx context.Context, userID string) ([]model.ProjectSummary, error) {
	return s.projects.ListForUser(ctx, userID)
}

// Members returns a project's member roster.
func (s *ProjectService) Members(ctx context.Context, projectID string) ([]model.User, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.projects.ListMembers(ctx, projectID)
}
