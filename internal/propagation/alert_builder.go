package propagation

import (
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"github.com/google/uuid"
)

// AlertBuilder 传播告警构建器
type AlertBuilder struct {
	plot  *models.Plot
	now   func() time.Time
	newID func() string
}

// NewAlertBuilder 创建传播告警构建器
func NewAlertBuilder(plot *models.Plot) *AlertBuilder {
	return &AlertBuilder{
		plot:  plot,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// BuildAlert 由一个病害簇构建告警
// 受影响区域只包含实际位于网格内的成员；相邻健康植物按植物去重计数。
func (b *AlertBuilder) BuildAlert(cluster Cluster, grid *Grid, totalPlants int) models.PropagationAlert {
	infected := len(cluster.Members)
	level := ClassifyRisk(infected, totalPlants)

	zone := make([]models.AffectedCell, 0, infected)
	healthy := make(map[string]struct{})
	for _, member := range cluster.Members {
		if member.Position == nil {
			continue
		}
		row, col := member.Position.Row, member.Position.Column
		if !grid.Holds(row, col, member.PlantID) {
			continue
		}
		zone = append(zone, models.AffectedCell{
			Row:     row,
			Column:  col,
			PlantID: member.PlantID,
			Status:  member.Status(),
		})
		for _, n := range Neighbors(grid, row, col) {
			neighbor := grid.At(n.Row, n.Column)
			if neighbor != nil && neighbor.Status() == models.StatusHealthy {
				healthy[neighbor.PlantID] = struct{}{}
			}
		}
	}

	return models.PropagationAlert{
		AlertID:              b.newID(),
		PlotID:               b.plot.PlotID,
		FarmID:               b.plot.FarmID,
		DiseaseID:            cluster.DiseaseID,
		DiseaseName:          cluster.DiseaseName,
		AffectedZone:         zone,
		RiskLevel:            level,
		InfectedCount:        infected,
		TotalPlants:          totalPlants,
		InfectionRatio:       float64(infected) / float64(totalPlants),
		AdjacentHealthyCount: len(healthy),
		Recommendations:      Recommendations(level, cluster.DiseaseName),
		DetectedAt:           b.now(),
	}
}
