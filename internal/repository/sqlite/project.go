package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/tahmid/projecthub/internal/apperror"
	"github.com/tahmid/projecthub/internal/model"
	"github.com/tahmid/projecthub/internal/repository"
)

// ProjectRepo implements repository.ProjectRepository on SQLite.
type ProjectRepo struct {
	conn *sql.DB
}

var _ repository.ProjectRepository = (*ProjectRepo)(nil)

// Create inserts the project and its creator's membership in a single
// transaction. If either insert fails the transaction rolls back, so a
// project can never exist without its creator in the member set.
func (r *ProjectRepo) Create(ctx context.Context, project *model.Project) error {
	project.ID = xid.New().String()
	project.CreatedAt = time.Now()

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("sqlite: beginning tx: %w", err))
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, title, description, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		project.ID,
		project.Title,
		project.Description,
		project.CreatedBy,
		project.CreatedAt,
	)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("sqlite: inserting project: %w", err))
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, joined_at)
		 VALUES (?, ?, ?)`,
		project.ID,
		project.CreatedBy,
		project.CreatedAt,
	)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("sqlite: inserting creator membership: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return apperror.Unavailable(fmt.Errorf("sqlite: committing project create: %w", err))
	}

	return nil
}

// GetByID retrieves a single project.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, title, description, created_by, created_at
		 FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", id)
		}
		return nil, apperror.Unavailable(fmt.Errorf("sqlite: getting project %s: %w", id, err))
	}
	return &p, nil
}

// List returns projects, optionally filtered by a case-insensitive
// substring match over title or description. Ordered by id so repeated
// calls see the same sequence.
func (r *ProjectRepo) List(ctx context.Context, search string) ([]model.Project, error) {
	query := `SELECT id, title, description, created_by, created_at
	          FROM projects ORDER BY id`
	args := []any{}
	if search != "" {
		// LIKE is case-insensitive for ASCII in SQLite by default.
		query = `SELECT id, title, description, created_by, created_at
		         FROM projects
		         WHERE title LIKE ? OR description LIKE ?
		         ORDER BY id`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("sqlite: listing projects: %w", err))
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}

	return projects, nil
}

// ListForUser returns the projects the user is a member of, each with its
// total member count.
func (r *ProjectRepo) ListForUser(ctx context.Context, userID string) ([]model.ProjectSummary, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT p.id, p.title, p.description, p.created_by, p.created_at,
		        COUNT(pm.user_id) AS member_count
		 FROM projects p
		 JOIN project_members pm ON pm.project_id = p.id
		 WHERE p.id IN (SELECT project_id FROM project_members WHERE user_id = ?)
		 GROUP BY p.id
		 ORDER BY p.id`, userID)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("sqlite: listing projects for user %s: %w", userID, err))
	}
	defer rows.Close()

	summaries := []model.ProjectSummary{}
	for rows.Next() {
		var s model.ProjectSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedBy, &s.CreatedAt, &s.MemberCount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project summaries: %w", err)
	}

	return summaries, nil
}

// AddMember inserts a membership. The compound primary key on
// project_members rejects duplicates, so two concurrent joins by the same
// user resolve at the storage layer: one insert lands, the other returns
// Conflict. No check-then-act in application code.
func (r *ProjectRepo) AddMember(ctx context.Context, m *model.Membership) error {
	m.JoinedAt = time.Now()
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, joined_at)
		 VALUES (?, ?, ?)`,
		m.ProjectID, m.UserID, m.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user is already a member of this project")
		}
		return apperror.Unavailable(fmt.Errorf("sqlite: adding member %s to project %s: %w", m.UserID, m.ProjectID, err))
	}
	return nil
}

// IsMember reports whether the pair exists.
func (r *ProjectRepo) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var one int
	err := r.conn.QueryRowContext(ctx,
		`SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apperror.Unavailable(fmt.Errorf("sqlite: checking membership: %w", err))
	}
	return true, nil
}

// ListMembers returns the member users of a project, ordered by join time.
func (r *ProjectRepo) ListMembers(ctx context.Context, projectID string) ([]model.User, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.institution, u.role, u.profile_pic, u.joined_at
		 FROM users u
		 JOIN project_members pm ON pm.user_id = u.id
		 WHERE pm.project_id = ?
		 ORDER BY pm.joined_at, u.id`, projectID)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("sqlite: listing members of project %s: %w", projectID, err))
	}
	defer rows.Close()

	members := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Institution, &u.Role, &u.ProfilePic, &u.JoinedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		members = append(members, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members: %w", err)
	}

	return members, nil
}
