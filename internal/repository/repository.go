// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage is the production implementation;
// tests inject in-memory mocks. The service layer never imports a
// concrete storage package.
package repository

import (
	"context"

	"github.com/tahmid/projecthub/internal/model"
)

// UserRepository persists registered accounts.
type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict if the
	// email is already registered (compared case-insensitively).
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail resolves a user by email, case-insensitively.
	// Returns apperror.ErrNotFound on a miss.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// ListCommunity returns every user together with their project
	// involvement count and total snapshot line count.
	ListCommunity(ctx context.Context) ([]model.CommunityProfile, error)
}

// ProjectRepository persists projects and their membership sets.
type ProjectRepository interface {
	// Create inserts the project and the creator's membership as one
	// atomic unit: either both rows land or neither does.
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// List returns projects matching an optional case-insensitive
	// substring filter over title and description, ordered by id.
	List(ctx context.Context, search string) ([]model.Project, error)
	// ListForUser returns the projects the user belongs to, with member
	// counts, ordered by id.
	ListForUser(ctx context.Context, userID string) ([]model.ProjectSummary, error)
	// AddMember inserts a membership; JoinedAt is set by the store.
	// Returns apperror.ErrConflict if the pair already exists; the
	// uniqueness check is delegated to the storage engine so concurrent
	// joins cannot both succeed.
	AddMember(ctx context.Context, m *model.Membership) error
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	ListMembers(ctx context.Context, projectID string) ([]model.User, error)
}

// ChatRepository persists the two append-only per-project message logs.
// The channel argument selects which log a call touches; the two logs
// share a contract but are stored and keyed independently.
type ChatRepository interface {
	Append(ctx context.Context, channel model.ChatChannel, msg *model.ChatMessage) error
	// Recent returns up to limit messages for the project, newest first.
	// Callers decide the display order (the chat channel reverses back to
	// chronological, the messages channel keeps newest-first).
	Recent(ctx context.Context, channel model.ChatChannel, projectID string, limit int) ([]model.ChatMessage, error)
}

// SnapshotRepository persists the one-per-project code blob.
type SnapshotRepository interface {
	// Load returns the project's snapshot. A project that has never saved
	// gets an empty snapshot back, not an error.
	Load(ctx context.Context, projectID string) (*model.CodeSnapshot, error)
	// Save upserts the snapshot. Last writer wins; no history.
	Save(ctx context.Context, snap *model.CodeSnapshot) error
}

// AttachmentRepository persists file attachment metadata. The bytes live
// in blob storage, keyed by model.BlobKey.
type AttachmentRepository interface {
	Create(ctx context.Context, att *model.FileAttachment) error
	ListByProject(ctx context.Context, projectID string) ([]model.FileAttachment, error)
}
