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

// UserRepo implements repository.UserRepository on SQLite.
type UserRepo struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserRepo)(nil)

// Create inserts a new user. The unique NOCASE index on email does the
// duplicate detection: two concurrent registrations with the same email
// cannot both succeed, and we translate the constraint failure into a
// Conflict the caller can show the user.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.JoinedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, institution, role, profile_pic, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.Institution,
		user.Role,
		user.ProfilePic,
		user.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		return apperror.Unavailable(fmt.Errorf("sqlite: inserting user: %w", err))
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.scanUser(r.conn.QueryRowContext(ctx,
		`SELECT id, name, email, institution, role, profile_pic, joined_at
		 FROM users WHERE id = ?`, id), "user", id)
}

// GetByEmail retrieves a user by email. The email column collates NOCASE,
// so the comparison is case-insensitive without any lower() gymnastics.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.scanUser(r.conn.QueryRowContext(ctx,
		`SELECT id, name, email, institution, role, profile_pic, joined_at
		 FROM users WHERE email = ?`, email), "user", email)
}

func (r *UserRepo) scanUser(row *sql.Row, resource, key string) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Institution,
		&u.Role,
		&u.ProfilePic,
		&u.JoinedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound(resource, key)
		}
		return nil, apperror.Unavailable(fmt.Errorf("sqlite: getting %s %s: %w", resource, key, err))
	}
	return &u, nil
}

// Update rewrites the mutable profile fields. Email and joined_at never
// change after registration.
func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, institution = ?, role = ?, profile_pic = ?
		 WHERE id = ?`,
		user.Name,
		user.Institution,
		user.Role,
		user.ProfilePic,
		user.ID,
	)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("sqlite: updating user %s: %w", user.ID, err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// ListCommunity returns every user with aggregate stats for the community
// page. Lines of code are counted over the snapshots of the projects the
// user belongs to; counting happens in Go because SQLite has no cheap
// line-count function and snapshots are small.
func (r *UserRepo) ListCommunity(ctx context.Context) ([]model.CommunityProfile, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.institution, u.role, u.profile_pic, u.joined_at,
		        COUNT(pm.project_id) AS involved
		 FROM users u
		 LEFT JOIN project_members pm ON pm.user_id = u.id
		 GROUP BY u.id
		 ORDER BY u.id`)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("sqlite: listing community: %w", err))
	}
	defer rows.Close()

	var profiles []model.CommunityProfile
	for rows.Next() {
		var p model.CommunityProfile
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Email, &p.Institution, &p.Role, &p.ProfilePic, &p.JoinedAt,
			&p.ProjectsInvolved,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning community row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating community rows: %w", err)
	}

	for i := range profiles {
		lines, err := r.linesOfCode(ctx, profiles[i].ID)
		if err != nil {
			return nil, err
		}
		profiles[i].LinesOfCode = lines
	}

	return profiles, nil
}

func (r *UserRepo) linesOfCode(ctx context.Context, userID string) (int, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT pc.code
		 FROM project_code pc
		 JOIN project_members pm ON pm.project_id = pc.project_id
		 WHERE pm.user_id = ?`, userID)
	if err != nil {
		return 0, apperror.Unavailable(fmt.Errorf("sqlite: loading snapshots for user %s: %w", userID, err))
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return 0, fmt.Errorf("sqlite: scanning snapshot code: %w", err)
		}
		total += countLines(code)
	}
	return total, rows.Err()
}

func countLines(code string) int {
	if code == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(code); i++ {
		if code[i] == '\n' {
			n++
		}
	}
	// A trailing newline does not start another line.
	if code[len(code)-1] == '\n' {
		n--
	}
	return n
}
