// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the platform-wide role a user registered with. There is no
// per-project role: inside a project everyone is just a member.
type Role string

const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User represents a registered account.
//
// The email is the sole login credential. There is no password: the trust
// boundary of this prototype is "knows the email", carried over as a given
// assumption. Emails compare case-insensitively and are unique.
type User struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Email       string    `json:"email"       db:"email"`
	Institution string    `json:"institution" db:"institution"`
	Role        Role      `json:"role"        db:"role"`
	ProfilePic  string    `json:"profilePic"  db:"profile_pic"` // optional upload reference, may be empty
	JoinedAt    time.Time `json:"joinedAt"    db:"joined_at"`
}

// CommunityProfile is a user plus the aggregate stats shown on the
// community page: how many projects they belong to and the total line
// count of the code snapshots in those projects.
type CommunityProfile struct {
	User
	ProjectsInvolved int `json:"projectsInvolved"`
	LinesOfCode      int `json:"linesOfCode"`
}
