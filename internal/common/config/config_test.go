package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "agro",
		Password: "secret",
		Database: "plots",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db port=5433 user=agro password=secret dbname=plots sslmode=require", cfg.GetDSN())
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "pg.internal")
	t.Setenv("TEST_DB_PORT", "not-a-port")
	t.Setenv("TEST_DB_NAME", "farm")
	t.Setenv("TEST_DB_MAX_CONNS", "20")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, Database: "agro", MaxConns: 10}
	cfg.LoadFromEnv("TEST_DB")

	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "farm", cfg.Database)
	assert.Equal(t, 20, cfg.MaxConns)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis:6380")
	t.Setenv("TEST_REDIS_DB", "3")

	cfg := RedisConfig{Addr: "localhost:6379"}
	cfg.LoadFromEnv("TEST_REDIS")

	assert.Equal(t, "redis:6380", cfg.Addr)
	assert.Equal(t, 3, cfg.DB)
}

func TestMQTTConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("TEST_MQTT_QOS", "5")

	cfg := MQTTConfig{QoS: 1}
	cfg.LoadFromEnv("TEST_MQTT")

	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, byte(1), cfg.QoS)

	t.Setenv("TEST_MQTT_QOS", "2")
	cfg.LoadFromEnv("TEST_MQTT")
	assert.Equal(t, byte(2), cfg.QoS)
}
