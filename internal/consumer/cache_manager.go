package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/config"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/store"

	"go.uber.org/zap"
)

// ErrNoCachedAlerts 地块没有缓存的告警（未分析或已过期）
var ErrNoCachedAlerts = errors.New("no cached alerts")

// CacheManager 告警缓存管理器
type CacheManager struct {
	config *config.Config
	kv     store.KV
	logger *zap.Logger
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(
	cfg *config.Config,
	kv store.KV,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config: cfg,
		kv:     kv,
		logger: logger,
	}
}

func (c *CacheManager) alertKey(plotID string) string {
	return fmt.Sprintf("%s%s%s",
		c.config.Propagation.Cache.AlertKeyPrefix,
		plotID,
		c.config.Propagation.Cache.AlertSuffix,
	)
}

// UpdateAlertCache 更新地块告警缓存（空列表同样写入，覆盖过期结果）
func (c *CacheManager) UpdateAlertCache(ctx context.Context, plotID string, alerts []models.PropagationAlert) error {
	key := c.alertKey(plotID)

	if alerts == nil {
		alerts = []models.PropagationAlert{}
	}
	jsonData, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alert data: %w", err)
	}

	ttl := time.Duration(c.config.Propagation.Cache.AlertTTL) * time.Second
	if err := c.kv.Set(ctx, key, string(jsonData), ttl); err != nil {
		return fmt.Errorf("failed to set alert cache: %w", err)
	}

	c.logger.Debug("Updated alert cache",
		zap.String("plot_id", plotID),
		zap.String("key", key),
		zap.Int("alert_count", len(alerts)),
	)
	return nil
}

// GetAlertCache 读取地块告警缓存
func (c *CacheManager) GetAlertCache(ctx context.Context, plotID string) ([]models.PropagationAlert, error) {
	val, err := c.kv.Get(ctx, c.alertKey(plotID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, fmt.Errorf("plot %s: %w", plotID, ErrNoCachedAlerts)
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var alerts []models.PropagationAlert
	if err := json.Unmarshal([]byte(val), &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert data: %w", err)
	}
	return alerts, nil
}
