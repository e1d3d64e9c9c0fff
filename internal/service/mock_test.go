package service

// In-memory fakes of the repository interfaces, shared by the service
// tests in this package. Hand-written rather than generated so the
// behaviour under test (conflicts, not-found, ordering) is explicit.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/tahmid/projecthub/internal/apperror"
	"github.com/tahmid/projecthub/internal/model"
	"github.com/tahmid/projecthub/internal/sandbox"
)

type mockStore struct {
	users       map[string]*model.User
	projects    map[string]*model.Project
	members     map[string]map[string]time.Time // projectID -> userID -> joined
	chats       map[model.ChatChannel][]model.ChatMessage
	snapshots   map[string]string
	attachments []model.FileAttachment
	nextID      int
}

func newMockStore() *mockStore {
	return &mockStore{
		users:     make(map[string]*model.User),
		projects:  make(map[string]*model.Project),
		members:   make(map[string]map[string]time.Time),
		chats:     make(map[model.ChatChannel][]model.ChatMessage),
		snapshots: make(map[string]string),
	}
}

func (m *mockStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// --- UserRepository ---

func (m *mockStore) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("email is already registered")
		}
	}
	user.ID = m.id("user")
	user.JoinedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockStore) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockStore) ListCommunity(_ context.Context) ([]model.CommunityProfile, error) {
	profiles := make([]model.CommunityProfile, 0, len(m.users))
	for _, u := range m.users {
		p := model.CommunityProfile{User: *u}
		for pid, set := range m.members {
			if _, ok := set[u.ID]; ok {
				p.ProjectsInvolved++
				if code := m.snapshots[pid]; code != "" {
					p.LinesOfCode += len(strings.Split(strings.TrimRight(code, "\n"), "\n"))
				}
			}
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// --- ProjectRepository ---

func (m *mockStore) CreateProject(_ context.Context, project *model.Project) error {
	project.ID = m.id("proj")
	project.CreatedAt = time.Now()
	stored := *project
	m.projects[project.ID] = &stored
	m.members[project.ID] = map[string]time.Time{project.CreatedBy: project.CreatedAt}
	return nil
}

// The mock's Create is taken by UserRepository; projectRepo adapts.
type projectRepo struct{ *mockStore }

func (r projectRepo) Create(ctx context.Context, project *model.Project) error {
	return r.CreateProject(ctx, project)
}

func (r projectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	result := *p
	return &result, nil
}

func (m *mockStore) List(_ context.Context, search string) ([]model.Project, error) {
	result := []model.Project{}
	for _, p := range m.projects {
		if search == "" ||
			strings.Contains(strings.ToLower(p.Title), strings.ToLower(search)) ||
			strings.Contains(strings.ToLower(p.Description), strings.ToLower(search)) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockStore) ListForUser(_ context.Context, userID string) ([]model.ProjectSummary, error) {
	result := []model.ProjectSummary{}
	for pid, set := range m.members {
		if _, ok := set[userID]; ok {
			result = append(result, model.ProjectSummary{
				Project:     *m.projects[pid],
				MemberCount: len(set),
			})
		}
	}
	return result, nil
}

func (m *mockStore) AddMember(_ context.Context, member *model.Membership) error {
	set, ok := m.members[member.ProjectID]
	if !ok {
		set = make(map[string]time.Time)
		m.members[member.ProjectID] = set
	}
	if _, exists := set[member.UserID]; exists {
		return apperror.Conflict("user is already a member of this project")
	}
	member.JoinedAt = time.Now()
	set[member.UserID] = member.JoinedAt
	return nil
}

func (m *mockStore) IsMember(_ context.Context, projectID, userID string) (bool, error) {
	_, ok := m.members[projectID][userID]
	return ok, nil
}

func (m *mockStore) ListMembers(_ context.Context, projectID string) ([]model.User, error) {
	result := []model.User{}
	for uid := range m.members[projectID] {
		if u, ok := m.users[uid]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockStore) memberCount(projectID string) int {
	return len(m.members[projectID])
}

// --- ChatRepository ---

func (m *mockStore) Append(_ context.Context, channel model.ChatChannel, msg *model.ChatMessage) error {
	msg.ID = m.id("msg")
	msg.SentAt = time.Now()
	if u, ok := m.users[msg.SenderID]; ok {
		msg.SenderName = u.Name
	}
	m.chats[channel] = append(m.chats[channel], *msg)
	return nil
}

func (m *mockStore) Recent(_ context.Context, channel model.ChatChannel, projectID string, limit int) ([]model.ChatMessage, error) {
	all := m.chats[channel]
	// newest first: walk the append order backwards
	result := []model.ChatMessage{}
	for i := len(all) - 1; i >= 0 && len(result) < limit; i-- {
		if all[i].ProjectID == projectID {
			result = append(result, all[i])
		}
	}
	return result, nil
}

func (m *mockStore) chatLen(channel model.ChatChannel) int {
	return len(m.chats[channel])
}

// --- SnapshotRepository ---

func (m *mockStore) Load(_ context.Context, projectID string) (*model.CodeSnapshot, error) {
	return &model.CodeSnapshot{ProjectID: projectID, Code: m.snapshots[projectID]}, nil
}

func (m *mockStore) Save(_ context.Context, snap *model.CodeSnapshot) error {
	m.snapshots[snap.ProjectID] = snap.Code
	return nil
}

// --- AttachmentRepository ---

type attachmentRepo struct{ *mockStore }

func (r attachmentRepo) Create(_ context.Context, att *model.FileAttachment) error {
	att.ID = r.id("file")
	att.UploadedAt = time.Now()
	r.mockStore.attachments = append(r.mockStore.attachments, *att)
	return nil
}

func (r attachmentRepo) ListByProject(_ context.Context, projectID string) ([]model.FileAttachment, error) {
	result := []model.FileAttachment{}
	for _, a := range r.mockStore.attachments {
		if a.ProjectID == projectID {
			result = append(result, a)
		}
	}
	return result, nil
}

// --- blob.Store ---

type mockBlobs struct {
	objects map[string][]byte
}

func newMockBlobs() *mockBlobs {
	return &mockBlobs{objects: make(map[string][]byte)}
}

func (b *mockBlobs) Put(_ context.Context, key string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.objects[key] = data
	return nil
}

func (b *mockBlobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object at key %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// --- sandbox.Executor ---

type mockExecutor struct {
	captured  sandbox.Request
	returnRes *sandbox.Result
	returnErr error
}

func (m *mockExecutor) Execute(_ context.Context, req sandbox.Request) (*sandbox.Result, error) {
	m.captured = req
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if m.returnRes != nil {
		return m.returnRes, nil
	}
	return &sandbox.Result{Output: "ok\n", Stdout: "ok\n"}, nil
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// registerUser creates a user directly in the store and fails the test on
// error.
func registerUser(t *testing.T, store *mockStore, name, email string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: email, Role: model.RoleStudent}
	if err := store.Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}
