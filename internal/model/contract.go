package model

import "time"

const (
	ContractStatusDraft      = "draft"
	ContractStatusSigned     = "signed"
	ContractStatusTerminated = "terminated"
)

type Contract struct {
	ID        int        `json:"id"`
	ProjectID int        `json:"project_id"`
	Title     string     `json:"title"`
	Vendor    string     `json:"vendor"`
	// AmountCents avoids floating point on money.
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	SignedAt    *time.Time `json:"signed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
