package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/common/redis"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
)

// AlertPublisher 告警发布接口
type AlertPublisher interface {
	Publish(ctx context.Context, farmID, plotID string, alerts []models.PropagationAlert) error
}

// StreamPublisher 发布到 Redis Streams
type StreamPublisher struct {
	client *redis.Client
	stream string
}

// NewStreamPublisher 创建 Streams 发布器
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, farmID, plotID string, alerts []models.PropagationAlert) error {
	attrs := map[string]string{
		"farm_id":     farmID,
		"plot_id":     plotID,
		"alert_count": strconv.Itoa(len(alerts)),
		"top_risk":    string(topRisk(alerts)),
	}
	if _, err := redis.PublishJSONToStream(ctx, p.client, p.stream, alerts, attrs); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// MessagePublisher MQTT 发布接口（*mqtt.Client 实现）
type MessagePublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	QoS() byte
}

// MQTTPublisher 发布到 MQTT 主题 <prefix>/<farm_id>/<plot_id>（retained，订阅者总能拿到最新结果）
type MQTTPublisher struct {
	client      MessagePublisher
	topicPrefix string
}

// NewMQTTPublisher 创建 MQTT 发布器
func NewMQTTPublisher(client MessagePublisher, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}
}

// Topic 地块告警主题
func (p *MQTTPublisher) Topic(farmID, plotID string) string {
	return fmt.Sprintf("%s/%s/%s", p.topicPrefix, farmID, plotID)
}

func (p *MQTTPublisher) Publish(ctx context.Context, farmID, plotID string, alerts []models.PropagationAlert) error {
	payload, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}
	topic := p.Topic(farmID, plotID)
	if err := p.client.Publish(topic, p.client.QoS(), true, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// MultiPublisher 依次发布到所有发布器，单个失败不影响其他
type MultiPublisher []AlertPublisher

func (m MultiPublisher) Publish(ctx context.Context, farmID, plotID string, alerts []models.PropagationAlert) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, farmID, plotID, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// topRisk 结果已按风险降序，首条即最高
func topRisk(alerts []models.PropagationAlert) models.RiskLevel {
	if len(alerts) == 0 {
		return ""
	}
	return alerts[0].RiskLevel
}
