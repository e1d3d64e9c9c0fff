package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tahmid/projecthub/internal/model"
)

// newTestDB opens a throwaway database in the test's temp directory and
// closes it when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, name, email string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: email, Role: model.RoleStudent}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user %s: %v", email, err)
	}
	return u
}

func createTestProject(t *testing.T, db *DB, title, creatorID string) *model.Project {
	t.Helper()
	p := &model.Project{Title: title, CreatedBy: creatorID}
	if err := db.Projects().Create(context.Background(), p); err != nil {
		t.Fatalf("failed to create test project %s: %v", title, err)
	}
	return p
}
