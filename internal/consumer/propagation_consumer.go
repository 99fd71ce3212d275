package consumer

import (
	"context"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/config"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/propagation"

	"go.uber.org/zap"
)

// FarmAnalyzer 农场批量分析接口
type FarmAnalyzer interface {
	AnalyzeFarm(ctx context.Context, farmID string) ([]propagation.PlotAlerts, error)
}

// Notifier 高风险告警通知接口
type Notifier interface {
	Notify(ctx context.Context, alert models.PropagationAlert) error
}

// PropagationConsumer 传播分析消费者（轮询配置的农场）
type PropagationConsumer struct {
	config    *config.Config
	analyzer  FarmAnalyzer
	cache     *CacheManager
	publisher AlertPublisher // 可为 nil
	notifier  Notifier       // 可为 nil
	logger    *zap.Logger
}

// NewPropagationConsumer 创建传播分析消费者
func NewPropagationConsumer(
	cfg *config.Config,
	analyzer FarmAnalyzer,
	cache *CacheManager,
	publisher AlertPublisher,
	notifier Notifier,
	logger *zap.Logger,
) *PropagationConsumer {
	return &PropagationConsumer{
		config:    cfg,
		analyzer:  analyzer,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start 启动消费者（轮询模式），ctx 取消后返回
func (c *PropagationConsumer) Start(ctx context.Context) error {
	c.logger.Info("Propagation consumer started",
		zap.Strings("farm_ids", c.config.Propagation.FarmIDs),
		zap.Int("poll_interval", c.config.Propagation.PollInterval),
	)

	interval := c.config.Propagation.PollInterval
	if interval <= 0 {
		interval = 60
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	// 立即执行一次
	if err := c.analyzeAllFarms(ctx); err != nil {
		c.logger.Error("Failed to analyze farms on startup",
			zap.Error(err),
		)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Propagation consumer stopped")
			return nil
		case <-ticker.C:
			if err := c.analyzeAllFarms(ctx); err != nil {
				c.logger.Error("Failed to analyze farms",
					zap.Error(err),
				)
				// 继续执行，不中断
			}
		}
	}
}

// analyzeAllFarms 分析所有农场，单个农场失败只记录日志
func (c *PropagationConsumer) analyzeAllFarms(ctx context.Context) error {
	for _, farmID := range c.config.Propagation.FarmIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		results, err := c.analyzer.AnalyzeFarm(ctx, farmID)
		if err != nil {
			c.logger.Error("Failed to analyze farm",
				zap.String("farm_id", farmID),
				zap.Error(err),
			)
			continue
		}

		c.logger.Debug("Farm analyzed",
			zap.String("farm_id", farmID),
			zap.Int("plot_count", len(results)),
		)

		for _, r := range results {
			c.handlePlot(ctx, farmID, r)
		}
	}
	return nil
}

func (c *PropagationConsumer) handlePlot(ctx context.Context, farmID string, r propagation.PlotAlerts) {
	plotID := r.Plot.PlotID

	if err := c.cache.UpdateAlertCache(ctx, plotID, r.Alerts); err != nil {
		c.logger.Error("Failed to update alert cache",
			zap.String("plot_id", plotID),
			zap.Error(err),
		)
	}

	if len(r.Alerts) == 0 {
		return
	}

	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, farmID, plotID, r.Alerts); err != nil {
			c.logger.Error("Failed to publish alerts",
				zap.String("farm_id", farmID),
				zap.String("plot_id", plotID),
				zap.Error(err),
			)
		}
	}

	if c.notifier == nil {
		return
	}
	for _, alert := range r.Alerts {
		if !shouldNotify(alert.RiskLevel) {
			// 已按风险降序，后续更低
			break
		}
		if err := c.notifier.Notify(ctx, alert); err != nil {
			c.logger.Error("Failed to notify alert",
				zap.String("alert_id", alert.AlertID),
				zap.String("plot_id", plotID),
				zap.String("risk_level", string(alert.RiskLevel)),
				zap.Error(err),
			)
		}
	}
}

// shouldNotify 只通知 high 及以上
func shouldNotify(level models.RiskLevel) bool {
	return level.Rank() >= models.RiskHigh.Rank()
}

