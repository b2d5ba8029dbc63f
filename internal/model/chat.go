package model

import "time"

// ChatMessage is either a project group message (RecipientID == 0) or a
// direct message (ProjectID == 0).
type ChatMessage struct {
	ID          int       `json:"id"`
	ProjectID   int       `json:"project_id"`
	SenderID    int       `json:"sender_id"`
	SenderName  string    `json:"sender_name,omitempty"`
	RecipientID int       `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}
