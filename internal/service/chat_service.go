package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/internal/repository"
)

const defaultChatHistoryLimit = 50

type ChatService struct {
	chats    *repository.ChatRepository
	projects ProjectStore
	logger   *zap.Logger
}

func NewChatService(
	chats *repository.ChatRepository,
	projects ProjectStore,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		chats:    chats,
		projects: projects,
		logger:   logger,
	}
}

// Send persists a chat message. Exactly one of ProjectID (group message) or
// RecipientID (direct message) must be set; broadcasting to live connections
// is the hub's job, not the store's.
func (s *ChatService) Send(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	if msg.Body == "" {
		return nil, fmt.Errorf("message body is required: %w", model.ErrInvalidInput)
	}
	if (msg.ProjectID == 0) == (msg.RecipientID == 0) {
		return nil, fmt.Errorf("message needs either a project or a recipient: %w", model.ErrInvalidInput)
	}
	if msg.ProjectID != 0 {
		if _, err := s.projects.GetByID(ctx, msg.ProjectID); err != nil {
			return nil, err
		}
	}

	if _, err := s.chats.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns a project's recent group messages, oldest first.
func (s *ChatService) History(ctx context.Context, projectID, limit int) ([]model.ChatMessage, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultChatHistoryLimit
	}
	return s.chats.ListByProject(ctx, projectID, limit)
}

// DirectHistory returns recent direct messages between two users, oldest
// first.
func (s *ChatService) DirectHistory(ctx context.Context, userA, userB, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultChatHistoryLimit
	}
	return s.chats.ListDirect(ctx, userA, userB, limit)
}
