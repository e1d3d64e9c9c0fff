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

// AttachmentRepo implements repository.AttachmentRepository on SQLite.
type AttachmentRepo struct {
	conn *sql.DB
}

var _ repository.AttachmentRepository = (*AttachmentRepo)(nil)

// Create inserts an attachment metadata row. Re-uploading a filename adds
// a new row every time; the blob underneath is overwritten but the upload
// history is kept, matching the original behaviour.
func (r *AttachmentRepo) Create(ctx context.Context, att *model.FileAttachment) error {
	att.ID = xid.New().String()
	att.UploadedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO project_files (id, project_id, filename, uploader_id, uploaded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		att.ID,
		att.ProjectID,
		att.Filename,
		att.UploaderID,
		att.UploadedAt,
	)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("sqlite: inserting attachment: %w", err))
	}

	return nil
}

// ListByProject returns the attachment records for a project in upload
// order, each joined with the uploader's display name.
func (r *AttachmentRepo) ListByProject(ctx context.Context, projectID string) ([]model.FileAttachment, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT f.id, f.project_id, f.filename, f.uploader_id, u.name, f.uploaded_at
		 FROM project_files f
		 JOIN users u ON u.id = f.uploader_id
		 WHERE f.project_id = ?
		 ORDER BY f.uploaded_at, f.id`, projectID)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("sqlite: listing attachments for project %s: %w", projectID, err))
	}
	defer rows.Close()

	attachments := []model.FileAttachment{}
	for rows.Next() {
		var a model.FileAttachment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Filename, &a.UploaderID, &a.UploaderName, &a.UploadedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning attachment row: %w", err)
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attachments: %w", err)
	}

	return attachments, nil
}
