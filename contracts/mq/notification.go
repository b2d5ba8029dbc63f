package mq

import "time"

type NotificationCreatedPayload struct {
	NotificationID int       `json:"notification_id"`
	UserID         int       `json:"user_id"`
	ProjectID      int       `json:"project_id,omitempty"`
	TaskID         int       `json:"task_id,omitempty"`
	Kind           string    `json:"kind"` // task_assigned / task_status / purchase_decision / low_stock
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

type NotificationSentPayload struct {
	NotificationID int       `json:"notification_id"`
	UserID         int       `json:"user_id"`
	SentAt         time.Time `json:"sent_at"`
}
