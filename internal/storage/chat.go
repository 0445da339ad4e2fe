package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultChatLimit caps ChatHistory when no limit is given.
const DefaultChatLimit = 50

// ChatMessage is one turn of the assistant conversation attached to a
// project.
type ChatMessage struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendChatMessage stores a message for an existing project.
func (s *Store) AppendChatMessage(ctx context.Context, projectID, role, content string) (ChatMessage, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != RoleUser && role != RoleAssistant {
		return ChatMessage{}, fmt.Errorf("storage: invalid chat role %q (want %s or %s)", role, RoleUser, RoleAssistant)
	}
	if strings.TrimSpace(content) == "" {
		return ChatMessage{}, fmt.Errorf("storage: chat message content is required")
	}

	msg := ChatMessage{
		ProjectID: projectID,
		Role:      role,
		Content:   content,
		CreatedAt: timeNow().UTC(),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (project_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		msg.ProjectID, msg.Role, msg.Content, formatTime(msg.CreatedAt),
	)
	if err != nil {
		return ChatMessage{}, classify("append chat", err)
	}
	if msg.ID, err = res.LastInsertId(); err != nil {
		return ChatMessage{}, classify("append chat", err)
	}
	return msg, nil
}

// ChatHistory returns the last limit messages of a project, oldest first.
func (s *Store) ChatHistory(ctx context.Context, projectID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultChatLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, role, content, created_at FROM (
			SELECT * FROM chat_messages WHERE project_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		projectID, limit,
	)
	if err != nil {
		return nil, classify("chat history", err)
	}
	defer func() { _ = rows.Close() }()

	var results []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var created string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &created); err != nil {
			return nil, classify("chat history", err)
		}
		if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, &Error{Op: "chat history", Message: MsgLoad, Err: err}
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("chat history", err)
	}
	return results, nil
}
