package model

import "time"

const (
	PurchaseStatusPending  = "pending"
	PurchaseStatusApproved = "approved"
	PurchaseStatusRejected = "rejected"
)

type PurchaseRequest struct {
	ID          int        `json:"id"`
	ProjectID   int        `json:"project_id"`
	RequestedBy int        `json:"requested_by"`
	Item        string     `json:"item"`
	Quantity    float64    `json:"quantity"`
	Status      string     `json:"status"`
	DecidedBy   *int       `json:"decided_by"`
	DecidedAt   *time.Time `json:"decided_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
