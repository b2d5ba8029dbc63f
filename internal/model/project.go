package model

import "time"

const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusPaused    = "paused"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

type Project struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	// ManagerID is the legacy single-manager column. ManagerIDsJSON holds a
	// serialized list of manager user ids; when it parses to a non-empty
	// list it is authoritative and ManagerID is ignored.
	ManagerID      int       `json:"manager_id"`
	ManagerIDsJSON string    `json:"-"`
	ManagerIDs     []int     `json:"manager_ids"`
	Progress       int       `json:"progress"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusPaused,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}
