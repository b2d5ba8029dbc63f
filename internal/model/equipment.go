package model

import "time"

const (
	EquipmentStatusAvailable   = "available"
	EquipmentStatusInUse       = "in_use"
	EquipmentStatusMaintenance = "maintenance"
	EquipmentStatusRetired     = "retired"
)

func ValidEquipmentStatus(s string) bool {
	switch s {
	case EquipmentStatusAvailable, EquipmentStatusInUse,
		EquipmentStatusMaintenance, EquipmentStatusRetired:
		return true
	}
	return false
}

type Equipment struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id"`
	Name      string    `json:"name"`
	Serial    string    `json:"serial"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
