package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// AlertEvent webhook 请求体
type AlertEvent struct {
	Event string                  `json:"event"`
	Alert models.PropagationAlert `json:"alert"`
}

const alertEventName = "plot.propagation.alert"

// WebhookNotifier 通过 HTTP webhook 推送高风险告警
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 webhook 通知器
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

// Notify 推送单条告警，非 2xx 视为失败
func (n *WebhookNotifier) Notify(ctx context.Context, alert models.PropagationAlert) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(AlertEvent{Event: alertEventName, Alert: alert}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	n.logger.Info("Propagation alert notified",
		zap.String("alert_id", alert.AlertID),
		zap.String("plot_id", alert.PlotID),
		zap.String("risk_level", string(alert.RiskLevel)),
	)
	return nil
}
