package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "siteops/contracts/mq"
	"siteops/internal/model"
	"siteops/internal/repository"
	"siteops/pkg/metrics"
	"siteops/pkg/outbox"
)

// NotificationService persists notifications and hands delivery to the
// outbox: the row and the event commit in one transaction, the dispatcher
// publishes the event to the broker afterwards. A crash between commit and
// publish loses nothing.
type NotificationService struct {
	repo       *repository.NotificationRepository
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewNotificationService(
	repo *repository.NotificationRepository,
	outboxRepo *outbox.Repository,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Notify stores a notification for userID and enqueues a notification.created
// event in the same transaction. projectID and taskID are optional context
// for consumers; zero means absent.
func (s *NotificationService) Notify(ctx context.Context, userID int, kind, body string, projectID, taskID int) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin notification tx: %w", err)
	}
	defer tx.Rollback(ctx)

	n := &model.Notification{
		UserID: userID,
		Kind:   kind,
		Body:   body,
	}
	if err := s.repo.InsertInTx(ctx, tx, n); err != nil {
		return err
	}

	aggregateID := int64(n.ID)
	payload := mqcontracts.NotificationCreatedPayload{
		NotificationID: n.ID,
		UserID:         userID,
		ProjectID:      projectID,
		TaskID:         taskID,
		Kind:           kind,
		Message:        body,
		CreatedAt:      n.CreatedAt,
	}
	if err := outbox.InsertEventInTx(ctx, tx, s.outboxRepo, "notification", &aggregateID, "notification.created", payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit notification tx: %w", err)
	}

	metrics.IncrementNotification(kind)
	s.logger.Debug("Notification stored",
		zap.Int("notification_id", n.ID),
		zap.Int("user_id", userID),
		zap.String("kind", kind),
	)
	return nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int) ([]model.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID int) error {
	return s.repo.MarkRead(ctx, id, userID)
}
