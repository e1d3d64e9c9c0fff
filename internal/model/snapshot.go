package model

// CodeSnapshot is the single mutable code blob a project carries. At most
// one row per project; saving is an upsert and history is not retained.
type CodeSnapshot struct {
	ProjectID string `json:"projectId" db:"project_id"`
	Code      string `json:"code"      db:"code"`
}
