package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ai-super-hub/hub-api/internal/models"
)

// ChatRepository handles persistence of per-user chat history.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository constructs the repository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append stores one chat message.
func (r *ChatRepository) Append(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO chat_messages (id, user_id, role, content, created_at)
        VALUES (:id, :user_id, :role, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// History returns the user's messages in chronological order, most recent
// limit entries.
func (r *ChatRepository) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, user_id, role, content, created_at FROM (
        SELECT id, user_id, role, content, created_at FROM chat_messages
        WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d
        ) recent ORDER BY created_at ASC`, limit)
	var messages []models.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	return messages, nil
}

// DeleteByUser clears a user's chat history.
func (r *ChatRepository) DeleteByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM chat_messages WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}
