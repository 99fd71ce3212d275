package models

import "time"

// Plant 植物（可选网格坐标）
type Plant struct {
	PlantID     string     `json:"plant_id" db:"plant_id"`
	PlotID      string     `json:"plot_id" db:"plot_id"`
	Species     string     `json:"species" db:"species"`
	Position    *Position  `json:"position,omitempty"`
	Health      Health     `json:"health"`
	DiagnosedAt *time.Time `json:"diagnosed_at,omitempty" db:"diagnosed_at"`
	PlantedAt   *time.Time `json:"planted_at,omitempty" db:"planted_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Status 当前健康状态
func (p Plant) Status() PlantStatus {
	return p.Health.Status()
}

// TreatmentRecord 治疗记录
type TreatmentRecord struct {
	TreatmentID string    `json:"treatment_id"`
	PlantID     string    `json:"plant_id"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
}
