package propagation

import (
	"context"
	"errors"
	"fmt"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PlotLister 列出农场下的地块
type PlotLister interface {
	ListPlotsByFarm(ctx context.Context, farmID string) ([]models.Plot, error)
}

// PlotAlerts 单个地块的分析结果
type PlotAlerts struct {
	Plot   models.Plot               `json:"plot"`
	Alerts []models.PropagationAlert `json:"alerts"`
}

// BatchAnalyzer 按农场批量分析
type BatchAnalyzer struct {
	lister      PlotLister
	analyzer    *Analyzer
	concurrency int
	logger      *zap.Logger
}

// NewBatchAnalyzer 创建批量分析器（concurrency <= 0 表示不限制）
func NewBatchAnalyzer(lister PlotLister, analyzer *Analyzer, concurrency int, logger *zap.Logger) *BatchAnalyzer {
	return &BatchAnalyzer{
		lister:      lister,
		analyzer:    analyzer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// AnalyzeFarm 并发分析农场下所有地块，结果保持地块列表顺序
// 分析期间被删除的地块跳过；其他错误取消剩余分析并返回。
func (b *BatchAnalyzer) AnalyzeFarm(ctx context.Context, farmID string) ([]PlotAlerts, error) {
	plots, err := b.lister.ListPlotsByFarm(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plots: %w", err)
	}

	results := make([]PlotAlerts, len(plots))
	found := make([]bool, len(plots))

	g, gctx := errgroup.WithContext(ctx)
	if b.concurrency > 0 {
		g.SetLimit(b.concurrency)
	}
	for i := range plots {
		i := i
		g.Go(func() error {
			listed := plots[i]
			// 重新读取地块：列表之后被删除的地块返回 ErrNotFound，尺寸以最新为准
			plot, err := b.analyzer.plots.GetPlotByID(gctx, listed.PlotID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					b.logger.Warn("Plot disappeared during batch analysis",
						zap.String("farm_id", farmID),
						zap.String("plot_id", listed.PlotID),
					)
					return nil
				}
				return fmt.Errorf("failed to get plot %s: %w", listed.PlotID, err)
			}
			alerts, err := b.analyzer.AnalyzePlot(gctx, plot)
			if err != nil {
				return fmt.Errorf("failed to analyze plot %s: %w", plot.PlotID, err)
			}
			results[i] = PlotAlerts{Plot: *plot, Alerts: alerts}
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]PlotAlerts, 0, len(results))
	for i, r := range results {
		if found[i] {
			out = append(out, r)
		}
	}
	return out, nil
}
