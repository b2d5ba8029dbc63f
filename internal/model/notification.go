package model

import "time"

const (
	NotificationKindTaskAssigned     = "task_assigned"
	NotificationKindTaskStatus       = "task_status"
	NotificationKindPurchaseDecision = "purchase_decision"
	NotificationKindLowStock         = "low_stock"
	NotificationKindChatMessage      = "chat_message"
)

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
