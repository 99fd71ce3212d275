package models

import "time"

// RiskLevel 传播风险等级
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank 风险排序值（critical 最大）
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// AffectedCell 受影响的网格单元
type AffectedCell struct {
	Row     int         `json:"row"`
	Column  int         `json:"column"`
	PlantID string      `json:"plant_id"`
	Status  PlantStatus `json:"status"`
}

// PropagationAlert 病害传播告警（每次分析重新计算，不持久化）
type PropagationAlert struct {
	AlertID              string         `json:"alert_id"`
	PlotID               string         `json:"plot_id"`
	FarmID               string         `json:"farm_id"`
	DiseaseID            string         `json:"disease_id"`
	DiseaseName          string         `json:"disease_name"`
	AffectedZone         []AffectedCell `json:"affected_zone"`
	RiskLevel            RiskLevel      `json:"risk_level"`
	InfectedCount        int            `json:"infected_count"`
	TotalPlants          int            `json:"total_plants"`
	InfectionRatio       float64        `json:"infection_ratio"`
	AdjacentHealthyCount int            `json:"adjacent_healthy_count"`
	Recommendations      []string       `json:"recommendations"`
	DetectedAt           time.Time      `json:"detected_at"`
}
