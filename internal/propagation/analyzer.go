package propagation

import (
	"context"
	"fmt"
	"sort"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"go.uber.org/zap"
)

// PlotReader 地块读取接口
type PlotReader interface {
	GetPlotByID(ctx context.Context, plotID string) (*models.Plot, error)
}

// PlantReader 植物读取接口
type PlantReader interface {
	FindPlantsByPlotID(ctx context.Context, plotID string) ([]models.Plant, error)
}

// Analyzer 病害传播分析器（无状态，可并发调用）
type Analyzer struct {
	plots  PlotReader
	plants PlantReader
	logger *zap.Logger

	// 测试注入
	builder func(plot *models.Plot) *AlertBuilder
}

// NewAnalyzer 创建传播分析器
func NewAnalyzer(plots PlotReader, plants PlantReader, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		plots:   plots,
		plants:  plants,
		logger:  logger,
		builder: NewAlertBuilder,
	}
}

// AnalyzePropagation 分析地块的病害传播风险
// 地块不存在时返回包装后的 repository.ErrNotFound。
// 结果按风险等级降序，同级保持病害发现顺序；没有植物或没有患病植物时返回空切片。
func (a *Analyzer) AnalyzePropagation(ctx context.Context, plotID string) ([]models.PropagationAlert, error) {
	plot, err := a.plots.GetPlotByID(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plot: %w", err)
	}
	return a.AnalyzePlot(ctx, plot)
}

// AnalyzePlot 对已加载的地块执行分析
func (a *Analyzer) AnalyzePlot(ctx context.Context, plot *models.Plot) ([]models.PropagationAlert, error) {
	plants, err := a.plants.FindPlantsByPlotID(ctx, plot.PlotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plants: %w", err)
	}

	alerts := []models.PropagationAlert{}
	if len(plants) == 0 {
		return alerts, nil
	}

	grid := BuildGrid(plot.Rows, plot.Columns, plants)
	for _, orphan := range grid.Orphans() {
		a.logger.Warn("Plant position outside plot grid, excluded from analysis",
			zap.String("plot_id", plot.PlotID),
			zap.String("plant_id", orphan.PlantID),
			zap.Int("row", orphan.Position.Row),
			zap.Int("column", orphan.Position.Column),
			zap.Int("grid_rows", plot.Rows),
			zap.Int("grid_columns", plot.Columns),
		)
	}

	clusters := DetectClusters(plants)
	if len(clusters) == 0 {
		return alerts, nil
	}

	builder := a.builder(plot)
	for _, cluster := range clusters {
		alerts = append(alerts, builder.BuildAlert(cluster, grid, len(plants)))
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].RiskLevel.Rank() > alerts[j].RiskLevel.Rank()
	})

	a.logger.Debug("Propagation analyzed",
		zap.String("plot_id", plot.PlotID),
		zap.Int("plants", len(plants)),
		zap.Int("alerts", len(alerts)),
	)
	return alerts, nil
}
