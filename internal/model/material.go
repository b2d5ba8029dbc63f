package model

import "time"

type Material struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Quantity  float64   `json:"quantity"`
	Threshold float64   `json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LowStock reports whether quantity has fallen below the reorder threshold.
func (m *Material) LowStock() bool {
	return m.Threshold > 0 && m.Quantity < m.Threshold
}
