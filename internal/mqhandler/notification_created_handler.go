package mqhandler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	mqcontracts "siteops/contracts/mq"
	"siteops/internal/ws"
	"siteops/pkg/metrics"
	"siteops/pkg/mq"
	"siteops/pkg/util"
)

// NotificationCreatedHandler consumes notification.created events and pushes
// them to the user's live WebSocket connections. The row is already
// committed by the producer; this side only delivers. Redelivered events are
// dropped by the deduper; live deliveries emit a notification.sent event for
// downstream audit consumers.
type NotificationCreatedHandler struct {
	hub       *ws.Hub
	deduper   *util.Deduper
	publisher *mq.Publisher
	logger    *zap.Logger
}

func NewNotificationCreatedHandler(
	hub *ws.Hub,
	deduper *util.Deduper,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *NotificationCreatedHandler {
	return &NotificationCreatedHandler{
		hub:       hub,
		deduper:   deduper,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *NotificationCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	start := time.Now()

	var p mqcontracts.NotificationCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal NotificationCreatedPayload", zap.Error(err))
		return err
	}

	if !h.deduper.AcquireOnce(ctx, "notification_created", p.NotificationID) {
		h.logger.Debug("Skipping duplicate notification event",
			zap.Int("notification_id", p.NotificationID),
		)
		return nil
	}

	delivered := h.hub.SendToUser(p.UserID, ws.Frame{
		Type: ws.FrameTypeNotification,
		Data: p,
		At:   p.CreatedAt,
	})

	if delivered {
		sent := mqcontracts.NotificationSentPayload{
			NotificationID: p.NotificationID,
			UserID:         p.UserID,
			SentAt:         time.Now(),
		}
		if err := h.publisher.Publish("notification.sent", sent); err != nil {
			// delivery already happened; the audit event is best-effort
			h.logger.Warn("Failed to publish notification.sent",
				zap.Int("notification_id", p.NotificationID),
				zap.Error(err),
			)
		}
	}

	h.logger.Info("Handled notification.created event",
		zap.Int("notification_id", p.NotificationID),
		zap.Int("user_id", p.UserID),
		zap.String("kind", p.Kind),
		zap.Bool("delivered_live", delivered),
	)

	metrics.RecordMQConsumeLatency("notification.created", "notification_push", time.Since(start))
	return nil
}
