package model

import "time"

// Project is the unit of collaboration. Immutable after creation except
// through membership changes; projects are never deleted.
type Project struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedBy   string    `json:"createdBy"   db:"created_by"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// ProjectSummary pairs a project with its member count, as shown on the
// "my projects" listing.
type ProjectSummary struct {
	Project
	MemberCount int `json:"memberCount"`
}

// Membership is a (project, user) pair with set semantics: a user either
// is a member or is not. The project creator is always a member, inserted
// in the same transaction that creates the project.
type Membership struct {
	ProjectID string    `json:"projectId" db:"project_id"`
	UserID    string    `json:"userId"    db:"user_id"`
	JoinedAt  time.Time `json:"joinedAt"  db:"joined_at"`
}
