package model

import "time"

// SiteReport is a daily report filed from the construction site.
type SiteReport struct {
	ID             int       `json:"id"`
	ProjectID      int       `json:"project_id"`
	AuthorID       int       `json:"author_id"`
	ReportDate     time.Time `json:"report_date"`
	Weather        string    `json:"weather"`
	Summary        string    `json:"summary"`
	WorkforceCount int       `json:"workforce_count"`
	CreatedAt      time.Time `json:"created_at"`
}
