package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/common/config"
)

// Config 病害传播分析服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// 传播分析特定配置
	Propagation struct {
		// 地块/植物数据来源："postgres" 或 "kv"（Redis 中以 JSON 存储的实体）
		Store string

		// 轮询分析的农场 ID 列表（逗号分隔），为空则只提供 HTTP 查询
		FarmIDs []string

		PollInterval int // 轮询间隔（秒），默认 60 秒
		Concurrency  int // 单个农场并发分析的地块数，默认 4

		// Redis 缓存配置
		Cache struct {
			AlertKeyPrefix string // 告警缓存键前缀，如 "plotwatch:plot:"
			AlertSuffix    string // 告警缓存键后缀，如 ":propagation"
			AlertTTL       int    // 告警缓存 TTL（秒），默认 120 秒
		}

		// KV 实体存储键前缀（Store = "kv" 时使用）
		EntityKeyPrefix string

		AlertStream string // Redis Streams 名称，为空则不发布

		MQTTEnabled      bool
		AlertTopicPrefix string // MQTT 主题前缀，实际主题为 <prefix>/<farm_id>/<plot_id>

		WebhookURL string // high/critical 告警通知地址，为空则不通知
	}

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 默认值，再由 DB_* / REDIS_* / MQTT_* 环境变量覆盖
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "agro",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "plotwatch-propagation",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Propagation.Store = getEnv("PROPAGATION_STORE", "postgres")
	cfg.Propagation.FarmIDs = splitList(getEnv("FARM_IDS", ""))
	cfg.Propagation.PollInterval = getEnvInt("PROPAGATION_POLL_INTERVAL", 60)
	cfg.Propagation.Concurrency = getEnvInt("PROPAGATION_CONCURRENCY", 4)

	cfg.Propagation.Cache.AlertKeyPrefix = getEnv("CACHE_ALERT_PREFIX", "plotwatch:plot:")
	cfg.Propagation.Cache.AlertSuffix = ":propagation"
	cfg.Propagation.Cache.AlertTTL = getEnvInt("CACHE_ALERT_TTL", 120)
	cfg.Propagation.EntityKeyPrefix = getEnv("KV_ENTITY_PREFIX", "plotwatch:")

	cfg.Propagation.AlertStream = getEnv("ALERT_STREAM", "plotwatch:propagation:alerts")
	cfg.Propagation.MQTTEnabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.Propagation.AlertTopicPrefix = getEnv("ALERT_TOPIC_PREFIX", "plotwatch/propagation")
	cfg.Propagation.WebhookURL = getEnv("ALERT_WEBHOOK_URL", "")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 读取正整数环境变量，非法值回退到默认值
func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v >= 0 {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
