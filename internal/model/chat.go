package model

import "time"

// ChatMessage is one entry in a project's message log. Messages are
// append-only: no editing, no deletion, no cross-project visibility.
//
// SenderName is denormalised into the struct by the repository's join so
// the presentation layer never does its own user lookups.
type ChatMessage struct {
	ID         string    `json:"id"         db:"id"`
	ProjectID  string    `json:"projectId"  db:"project_id"`
	SenderID   string    `json:"senderId"   db:"sender_id"`
	SenderName string    `json:"senderName" db:"sender_name"`
	Text       string    `json:"text"       db:"text"`
	SentAt     time.Time `json:"sentAt"     db:"sent_at"`
}

// ChatChannel names one of the two independent per-project logs. They
// have the same append contract but deliberately different display
// orders, preserved from the original behaviour.
type ChatChannel string

const (
	// ChannelChat is the inline project chat: displayed oldest-first
	// (the most recent N fetched, then reversed to chronological).
	ChannelChat ChatChannel = "chat"
	// ChannelMessages is the project message board: displayed newest-first.
	ChannelMessages ChatChannel = "messages"
)
