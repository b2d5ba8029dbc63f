package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"siteops/internal/model"
)

type ChatRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewChatRepository(db *pgxpool.Pool, logger *zap.Logger) *ChatRepository {
	return &ChatRepository{db: db, logger: logger}
}

func (r *ChatRepository) Insert(ctx context.Context, m *model.ChatMessage) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (project_id, sender_id, recipient_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.ProjectID, m.SenderID, m.RecipientID, m.Body).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert chat message",
			zap.Error(err),
			zap.Int("sender_id", m.SenderID),
		)
		return 0, err
	}
	return id, nil
}

// ListByProject returns the group chat history for a project, oldest first.
func (r *ChatRepository) ListByProject(ctx context.Context, projectID, limit int) ([]model.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.project_id, m.sender_id, COALESCE(u.name, ''),
		       m.recipient_id, m.body, m.created_at
		FROM chat_messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.project_id = $1 AND m.recipient_id = 0
		ORDER BY m.created_at ASC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		r.logger.Error("Failed to query chat messages",
			zap.Error(err),
			zap.Int("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	messages := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SenderID, &m.SenderName,
			&m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListDirect returns the direct-message history between two users.
func (r *ChatRepository) ListDirect(ctx context.Context, userA, userB, limit int) ([]model.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.project_id, m.sender_id, COALESCE(u.name, ''),
		       m.recipient_id, m.body, m.created_at
		FROM chat_messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.project_id = 0
		  AND ((m.sender_id = $1 AND m.recipient_id = $2)
		    OR (m.sender_id = $2 AND m.recipient_id = $1))
		ORDER BY m.created_at ASC
		LIMIT $3
	`, userA, userB, limit)
	if err != nil {
		r.logger.Error("Failed to query direct messages", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	messages := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SenderID, &m.SenderName,
			&m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
