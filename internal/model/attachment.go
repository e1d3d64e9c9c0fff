package model

import "time"

// FileAttachment is the metadata record for an uploaded project file.
// The bytes themselves live in blob storage under the key derived by
// BlobKey; duplicate filenames within a project overwrite the blob while
// still inserting a fresh metadata row (no de-duplication).
type FileAttachment struct {
	ID           string    `json:"id"           db:"id"`
	ProjectID    string    `json:"projectId"    db:"project_id"`
	Filename     string    `json:"filename"     db:"filename"`
	UploaderID   string    `json:"uploaderId"   db:"uploader_id"`
	UploaderName string    `json:"uploaderName" db:"uploader_name"`
	UploadedAt   time.Time `json:"uploadedAt"   db:"uploaded_at"`
}

// BlobKey derives the storage key for a project file. Metadata and blob
// storage must agree on this derivation, so it lives here and nowhere else.
func BlobKey(projectID, filename string) string {
	return projectID + "_" + filename
}
