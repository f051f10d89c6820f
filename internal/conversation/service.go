// Package conversation stores the per-user chat history as an append-only
// ordered log of role-tagged messages with an optional structured payload.
package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/daybook-ai/daybook/internal/logger"
)

// Message is one stored conversation turn.
type Message struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"userId"`
	Role         string          `json:"role"` // "user" or "assistant"
	Content      string          `json:"content"`
	ResponseType string          `json:"responseType,omitempty"` // text, task_summary, question
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Service persists and reads conversation history.
type Service struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewService creates a new conversation service.
func NewService(db *sql.DB, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log.WithComponent("conversation-service"),
	}
}

// Append stores one turn at the end of the user's conversation.
func (s *Service) Append(ctx context.Context, userID int64, role, content, responseType string, payload json.RawMessage) error {
	var payloadArg interface{}
	if len(payload) > 0 {
		payloadArg = string(payload)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (user_id, role, content, response_type, payload)
		VALUES ($1, $2, $3, $4, $5)`,
		userID, role, content, responseType, payloadArg)
	if err != nil {
		return fmt.Errorf("failed to append conversation message: %w", err)
	}
	return nil
}

// Recent returns the last limit messages for the user in chronological order.
func (s *Service) Recent(ctx context.Context, userID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, response_type, payload, created_at
		FROM conversation_messages
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	var reversed []Message
	for rows.Next() {
		var m Message
		var payload sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.ResponseType, &payload, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation message: %w", err)
		}
		if payload.Valid {
			m.Payload = json.RawMessage(payload.String)
		}
		reversed = append(reversed, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		messages = append(messages, reversed[i])
	}
	return messages, nil
}
