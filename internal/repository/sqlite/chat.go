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

// ChatRepo implements repository.ChatRepository on SQLite, one table per
// channel.
type ChatRepo struct {
	conn *sql.DB
}

var _ repository.ChatRepository = (*ChatRepo)(nil)

// chatTables maps a channel to its backing table. The two logs are kept
// as separate tables rather than one table with a channel column so their
// contracts stay independent, matching the original layout.
var chatTables = map[model.ChatChannel]string{
	model.ChannelChat:     "project_chat",
	model.ChannelMessages: "project_messages",
}

func chatTable(channel model.ChatChannel) (string, error) {
	table, ok := chatTables[channel]
	if !ok {
		return "", fmt.Errorf("sqlite: unknown chat channel %q", channel)
	}
	return table, nil
}

// Append inserts a message into the channel's log with the current
// timestamp. Message text validation happens in the service layer; the
// repository stores whatever it is handed.
func (r *ChatRepo) Append(ctx context.Context, channel model.ChatChannel, msg *model.ChatMessage) error {
	table, err := chatTable(channel)
	if err != nil {
		return err
	}

	msg.ID = xid.New().String()
	msg.SentAt = time.Now()

	// The table name comes from the fixed map above, never from input.
	_, err = r.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, project_id, sender_id, message, sent_at)
		             VALUES (?, ?, ?, ?, ?)`, table),
		msg.ID,
		msg.ProjectID,
		msg.SenderID,
		msg.Text,
		msg.SentAt,
	)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("sqlite: appending to %s: %w", table, err))
	}

	return nil
}

// Recent returns up to limit messages for the project, newest first, each
// joined with the sender's display name. The sent_at index makes this the
// cheap query it looks like.
func (r *ChatRepo) Recent(ctx context.Context, channel model.ChatChannel, projectID string, limit int) ([]model.ChatMessage, error) {
	table, err := chatTable(channel)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT m.id, m.project_id, m.sender_id, u.name, m.message, m.sent_at
		             FROM %s m
		             JOIN users u ON u.id = m.sender_id
		             WHERE m.project_id = ?
		             ORDER BY m.sent_at DESC, m.id DESC
		             LIMIT ?`, table),
		projectID, limit)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("sqlite: reading %s for project %s: %w", table, projectID, err))
	}
	defer rows.Close()

	messages := make([]model.ChatMessage, 0, limit)
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SenderID, &m.SenderName, &m.Text, &m.SentAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", table, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s rows: %w", table, err)
	}

	return messages, nil
}
