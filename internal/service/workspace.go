package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/tahmid/projecthub/internal/apperror"
	"github.com/tahmid/projecthub/internal/blob"
	"github.com/tahmid/projecthub/internal/model"
	"github.com/tahmid/projecthub/internal/repository"
	"github.com/tahmid/projecthub/internal/sandbox"
)

// Validation constants for the workspace.
const (
	MaxCodeLength    = 100000 // ~100KB of code
	MaxMessageLength = 4000

	DefaultChatLimit = 10
	MaxChatLimit     = 100
)

// Workspace is the per-project facade the presentation layer talks to:
// chat, the shared code snapshot, code execution and file attachments,
// all scoped to one project and one explicit caller. Permission rules
// live here so every transport gets the same answers.
type Workspace struct {
	projects    repository.ProjectRepository
	chats       repository.ChatRepository
	snapshots   repository.SnapshotRepository
	attachments repository.AttachmentRepository
	blobs       blob.Store
	exec        sandbox.Executor
	runTimeout  time.Duration
	logger      *slog.Logger
}

// NewWorkspace creates the facade. exec may be nil when no sandbox
// backend is available; Run then reports execution as unavailable instead
// of failing at startup.
func NewWorkspace(
	projects repository.ProjectRepository,
	chats repository.ChatRepository,
	snapshots repository.SnapshotRepository,
	attachments repository.AttachmentRepository,
	blobs blob.Store,
	exec sandbox.Executor,
	runTimeout time.Duration,
	logger *slog.Logger,
) *Workspace {
	if runTimeout <= 0 {
		runTimeout = sandbox.DefaultTimeout
	}
	return &Workspace{
		projects:    projects,
		chats:       chats,
		snapshots:   snapshots,
		attachments: attachments,
		blobs:       blobs,
		exec:        exec,
		runTimeout:  runTimeout,
		logger:      logger,
	}
}

// requireProject confirms the project exists.
func (w *Workspace) requireProject(ctx context.Context, projectID string) error {
	if projectID == "" {
		return apperror.ValidationFailed("projectId", "project ID is required")
	}
	_, err := w.projects.GetByID(ctx, projectID)
	return err
}

// requireMember confirms the caller belongs to the project.
func (w *Workspace) requireMember(ctx context.Context, projectID, userID string) error {
	if err := w.requireProject(ctx, projectID); err != nil {
		return err
	}
	member, err := w.projects.IsMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperror.Forbidden("only project members may do this")
	}
	return nil
}

// --- Chat ---

// AppendChat appends a message to one of the project's two logs. A
// message that trims to nothing is rejected and the log is untouched.
// The messages channel is members-only; the inline chat is open to any
// signed-in viewer, matching the original pages.
func (w *Workspace) AppendChat(ctx context.Context, channel model.ChatChannel, projectID, senderID, text string) (*model.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.ValidationFailed("message", "message cannot be empty")
	}
	if len(text) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	if channel == model.ChannelMessages {
		if err := w.requireMember(ctx, projectID, senderID); err != nil {
			return nil, err
		}
	} else if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ProjectID: projectID,
		SenderID:  senderID,
		Text:      text,
	}
	if err := w.chats.Append(ctx, channel, msg); err != nil {
		w.logger.Error("failed to append chat message",
			slog.String("projectID", projectID),
			slog.String("channel", string(channel)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return msg, nil
}

// RecentChat returns recent messages for display. The two channels have
// deliberately different orders: the inline chat comes back in
// chronological order (the most recent window, reversed), while the
// messages channel comes back newest-first. Both orders are part of each
// channel's contract; do not unify them.
func (w *Workspace) RecentChat(ctx context.Context, channel model.ChatChannel, projectID, callerID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultChatLimit
	}
	if limit > MaxChatLimit {
		limit = MaxChatLimit
	}

	if channel == model.ChannelMessages {
		if err := w.requireMember(ctx, projectID, callerID); err != nil {
			return nil, err
		}
	} else if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	msgs, err := w.chats.Recent(ctx, channel, projectID, limit)
	if err != nil {
		return nil, err
	}

	if channel == model.ChannelChat {
		// Newest-first window from storage, reversed to chronological.
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}

	return msgs, nil
}

// --- Code snapshot ---

// LoadCode returns the project's saved code, or "" if nothing has been
// saved yet.
func (w *Workspace) LoadCode(ctx context.Context, projectID string) (string, error) {
	if err := w.requireProject(ctx, projectID); err != nil {
		return "", err
	}
	snap, err := w.snapshots.Load(ctx, projectID)
	if err != nil {
		return "", err
	}
	return snap.Code, nil
}

// SaveCode upserts the project's code snapshot. Last writer wins:
// concurrent saves race and the latest commit persists. That is an
// accepted limitation of the shared-snapshot model, not a bug; there is
// no collaborative editing protocol in this system.
func (w *Workspace) SaveCode(ctx context.Context, projectID, code string) error {
	if len(code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if err := w.requireProject(ctx, projectID); err != nil {
		return err
	}
	return w.snapshots.Save(ctx, &model.CodeSnapshot{ProjectID: projectID, Code: code})
}

// --- Execution ---

// Run executes the given code in the sandbox and returns the result.
// The code is whatever is in the caller's editor, not necessarily the
// saved snapshot. Sandbox failures are logged with the project id and
// returned as error values; nothing here can take the process down.
func (w *Workspace) Run(ctx context.Context, projectID, callerID, code string) (*sandbox.Result, error) {
	if w.exec == nil {
		return nil, fmt.Errorf("%w: no sandbox backend is configured", sandbox.ErrExecutionFailed)
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	result, err := w.exec.Execute(ctx, sandbox.Request{
		Code:    code,
		Timeout: w.runTimeout,
	})
	if err != nil {
		w.logger.Error("code execution failed",
			slog.String("projectID", projectID),
			slog.String("userID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	w.logger.Info("code executed",
		slog.String("projectID", projectID),
		slog.String("userID", callerID),
		slog.Bool("timedOut", result.TimedOut),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// --- File attachments ---

// Upload stores an attachment: bytes first, metadata second. Only members
// (the creator included, being always a member) may upload. A duplicate
// filename overwrites the stored bytes and adds a fresh metadata row.
// Extension allow-listing is the transport boundary's job, not this
// registry's.
func (w *Workspace) Upload(ctx context.Context, projectID, uploaderID, filename string, data []byte) (*model.FileAttachment, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, apperror.ValidationFailed("filename", "filename is required")
	}

	if err := w.requireMember(ctx, projectID, uploaderID); err != nil {
		return nil, err
	}

	key := model.BlobKey(projectID, filename)
	if err := w.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		w.logger.Error("failed to store attachment blob",
			slog.String("projectID", projectID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("storing attachment: %w", err)
	}

	att := &model.FileAttachment{
		ProjectID:  projectID,
		Filename:   filename,
		UploaderID: uploaderID,
	}
	if err := w.attachments.Create(ctx, att); err != nil {
		return nil, err
	}

	w.logger.Info("attachment uploaded",
		slog.String("projectID", projectID),
		slog.String("attachmentID", att.ID),
		slog.Int("bytes", len(data)),
	)

	return att, nil
}

// ListFiles returns the project's attachment records.
func (w *Workspace) ListFiles(ctx context.Context, projectID string) ([]model.FileAttachment, error) {
	if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return w.attachments.ListByProject(ctx, projectID)
}

// OpenFile opens an attachment's bytes for reading. The caller closes the
// reader.
func (w *Workspace) OpenFile(ctx context.Context, projectID, filename string) (io.ReadCloser, error) {
	if err := w.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return w.blobs.Get(ctx, model.BlobKey(projectID, filename))
}
