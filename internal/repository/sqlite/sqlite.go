// Package sqlite implements the repository interfaces on SQLite.
//
// SQLite is embedded: the whole durable store is one file inside the
// deployment, which matches the single-process scope of this system.
// We use modernc.org/sqlite rather than mattn/go-sqlite3 because it is a
// pure Go translation of the SQLite sources: no CGo, no C compiler,
// cross-compiles everywhere Go does.
//
// Concurrency: WAL mode lets reads proceed while a write is in flight,
// and SQLite serialises writes per database. Operations that must not
// race on the same project key (membership inserts, snapshot upserts)
// are additionally guarded by unique constraints and upsert statements,
// never by check-then-act in Go.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB pool. The per-entity repositories below share it;
// get them from the accessor methods.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserRepo { return &UserRepo{conn: db.conn} }

// Projects returns the project repository backed by this database.
func (db *DB) Projects() *ProjectRepo { return &ProjectRepo{conn: db.conn} }

// Chat returns the chat repository backed by this database.
func (db *DB) Chat() *ChatRepo { return &ChatRepo{conn: db.conn} }

// Snapshots returns the snapshot repository backed by this database.
func (db *DB) Snapshots() *SnapshotRepo { return &SnapshotRepo{conn: db.conn} }

// Attachments returns the attachment repository backed by this database.
func (db *DB) Attachments() *AttachmentRepo { return &AttachmentRepo{conn: db.conn} }

// New opens (or creates) the database at dbPath and runs migrations.
// Tests point dbPath at a file under t.TempDir(); ":memory:" would give
// every pooled connection its own empty database.
//
// Pragmas ride the DSN so the driver applies them to every connection in
// the pool, not just the first:
//   - WAL lets readers proceed while a write is in flight.
//   - busy_timeout makes a second writer wait for the lock instead of
//     failing with SQLITE_BUSY.
//   - Foreign keys are off by default in SQLite; we want sender_id,
//     uploader_id and created_by to actually reference users.
func New(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path surfaces here, not on
	// the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe
// to run on every start.
//
// Schema notes:
//   - users.email collates NOCASE and carries a unique index: email is the
//     sole login credential, so two accounts must never share one, and
//     lookups compare case-insensitively.
//   - project_members has a compound primary key: membership is a set,
//     and the constraint (not application code) rejects duplicate joins.
//   - project_chat and project_messages are two separate logs on purpose;
//     they have identical shapes but independent ordering contracts.
func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			email       TEXT NOT NULL COLLATE NOCASE,
			institution TEXT NOT NULL DEFAULT '',
			role        TEXT NOT NULL,
			profile_pic TEXT NOT NULL DEFAULT '',
			joined_at   DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_by  TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS project_members (
			project_id TEXT NOT NULL REFERENCES projects(id),
			user_id    TEXT NOT NULL REFERENCES users(id),
			joined_at  DATETIME NOT NULL,
			PRIMARY KEY (project_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS project_chat (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			sender_id  TEXT NOT NULL REFERENCES users(id),
			message    TEXT NOT NULL,
			sent_at    DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_project_chat_sent ON project_chat(project_id, sent_at)`,
		`CREATE TABLE IF NOT EXISTS project_messages (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			sender_id  TEXT NOT NULL REFERENCES users(id),
			message    TEXT NOT NULL,
			sent_at    DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_project_messages_sent ON project_messages(project_id, sent_at)`,
		`CREATE TABLE IF NOT EXISTS project_code (
			project_id TEXT PRIMARY KEY REFERENCES projects(id),
			code       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS project_files (
			id          TEXT PRIMARY KEY,
			project_id  TEXT NOT NULL REFERENCES projects(id),
			filename    TEXT NOT NULL,
			uploader_id TEXT NOT NULL REFERENCES users(id),
			uploaded_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_project_files_project ON project_files(project_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("applying migration: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure. We lean on the driver's typed error instead of
// matching message strings.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
