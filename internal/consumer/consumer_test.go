package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/config"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/propagation"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Propagation.FarmIDs = []string{"farm-1"}
	cfg.Propagation.PollInterval = 60
	cfg.Propagation.Cache.AlertKeyPrefix = "plotwatch:plot:"
	cfg.Propagation.Cache.AlertSuffix = ":propagation"
	cfg.Propagation.Cache.AlertTTL = 30
	return cfg
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, *CacheManager) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = redisClient.Close() })

	cacheManager := NewCacheManager(testConfig(), store.NewRedisKV(redisClient), zap.NewNop())
	return mr, redisClient, cacheManager
}

func alert(id string, level models.RiskLevel) models.PropagationAlert {
	return models.PropagationAlert{
		AlertID:     id,
		PlotID:      "plot-1",
		FarmID:      "farm-1",
		DiseaseID:   "d-" + id,
		DiseaseName: "Disease " + id,
		RiskLevel:   level,
	}
}

func TestCacheManager_UpdateAndGet(t *testing.T) {
	mr, _, cacheManager := setupTestRedis(t)
	ctx := context.Background()

	alerts := []models.PropagationAlert{alert("a1", models.RiskHigh)}
	require.NoError(t, cacheManager.UpdateAlertCache(ctx, "plot-1", alerts))

	key := "plotwatch:plot:plot-1:propagation"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	cached, err := cacheManager.GetAlertCache(ctx, "plot-1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "a1", cached[0].AlertID)
	assert.Equal(t, models.RiskHigh, cached[0].RiskLevel)
}

func TestCacheManager_EmptyListOverwrites(t *testing.T) {
	_, _, cacheManager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cacheManager.UpdateAlertCache(ctx, "plot-1", []models.PropagationAlert{alert("a1", models.RiskLow)}))
	require.NoError(t, cacheManager.UpdateAlertCache(ctx, "plot-1", nil))

	cached, err := cacheManager.GetAlertCache(ctx, "plot-1")
	require.NoError(t, err)
	assert.NotNil(t, cached)
	assert.Empty(t, cached)
}

func TestCacheManager_Miss(t *testing.T) {
	mr, _, cacheManager := setupTestRedis(t)
	ctx := context.Background()

	_, err := cacheManager.GetAlertCache(ctx, "plot-404")
	assert.ErrorIs(t, err, ErrNoCachedAlerts)

	require.NoError(t, cacheManager.UpdateAlertCache(ctx, "plot-1", nil))
	mr.FastForward(time.Minute)
	_, err = cacheManager.GetAlertCache(ctx, "plot-1")
	assert.ErrorIs(t, err, ErrNoCachedAlerts)
}

func TestStreamPublisher_Publish(t *testing.T) {
	_, redisClient, _ := setupTestRedis(t)
	ctx := context.Background()

	publisher := NewStreamPublisher(redisClient, "plotwatch:propagation:alerts")
	alerts := []models.PropagationAlert{alert("a1", models.RiskCritical), alert("a2", models.RiskLow)}
	require.NoError(t, publisher.Publish(ctx, "farm-1", "plot-1", alerts))

	msgs, err := redisClient.XRange(ctx, "plotwatch:propagation:alerts", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "farm-1", values["farm_id"])
	assert.Equal(t, "plot-1", values["plot_id"])
	assert.Equal(t, "2", values["alert_count"])
	assert.Equal(t, "critical", values["top_risk"])

	var decoded []models.PropagationAlert
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &decoded))
	assert.Len(t, decoded, 2)
}

// fakeMQTT 记录发布的消息
type fakeMQTT struct {
	topics   []string
	payloads [][]byte
	retained []bool
	err      error
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	f.retained = append(f.retained, retained)
	return nil
}

func (f *fakeMQTT) QoS() byte { return 1 }

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeMQTT{}
	publisher := NewMQTTPublisher(client, "plotwatch/propagation")

	err := publisher.Publish(context.Background(), "farm-1", "plot-1", []models.PropagationAlert{alert("a1", models.RiskHigh)})

	require.NoError(t, err)
	require.Len(t, client.topics, 1)
	assert.Equal(t, "plotwatch/propagation/farm-1/plot-1", client.topics[0])
	assert.True(t, client.retained[0])
	assert.Contains(t, string(client.payloads[0]), `"alert_id":"a1"`)
}

func TestMultiPublisher_ContinuesAfterFailure(t *testing.T) {
	broken := &fakeMQTT{err: errors.New("not connected")}
	healthy := &fakeMQTT{}
	multi := MultiPublisher{
		NewMQTTPublisher(broken, "a"),
		NewMQTTPublisher(healthy, "b"),
	}

	err := multi.Publish(context.Background(), "farm-1", "plot-1", []models.PropagationAlert{alert("a1", models.RiskLow)})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
	assert.Len(t, healthy.topics, 1)
}

// MockFarmAnalyzer 农场分析 mock
type MockFarmAnalyzer struct {
	mock.Mock
}

func (m *MockFarmAnalyzer) AnalyzeFarm(ctx context.Context, farmID string) ([]propagation.PlotAlerts, error) {
	args := m.Called(ctx, farmID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]propagation.PlotAlerts), args.Error(1)
}

// recordingNotifier 记录通知过的告警
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []models.PropagationAlert
}

func (r *recordingNotifier) Notify(ctx context.Context, a models.PropagationAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func TestPropagationConsumer_AnalyzeAllFarms(t *testing.T) {
	mr, redisClient, cacheManager := setupTestRedis(t)
	ctx := context.Background()

	cfg := testConfig()
	cfg.Propagation.FarmIDs = []string{"farm-1", "farm-broken"}

	analyzer := new(MockFarmAnalyzer)
	analyzer.On("AnalyzeFarm", mock.Anything, "farm-1").Return([]propagation.PlotAlerts{
		{
			Plot: models.Plot{PlotID: "plot-1", FarmID: "farm-1"},
			Alerts: []models.PropagationAlert{
				alert("a1", models.RiskCritical),
				alert("a2", models.RiskHigh),
				alert("a3", models.RiskMedium),
			},
		},
		{
			Plot:   models.Plot{PlotID: "plot-2", FarmID: "farm-1"},
			Alerts: []models.PropagationAlert{},
		},
	}, nil)
	analyzer.On("AnalyzeFarm", mock.Anything, "farm-broken").Return(nil, errors.New("db down"))

	notifier := &recordingNotifier{}
	publisher := NewStreamPublisher(redisClient, "alerts")
	consumer := NewPropagationConsumer(cfg, analyzer, cacheManager, publisher, notifier, zap.NewNop())

	require.NoError(t, consumer.analyzeAllFarms(ctx))

	assert.True(t, mr.Exists("plotwatch:plot:plot-1:propagation"))
	assert.True(t, mr.Exists("plotwatch:plot:plot-2:propagation"))

	msgs, err := redisClient.XRange(ctx, "alerts", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "plot-1", msgs[0].Values["plot_id"])

	require.Equal(t, 2, notifier.count())
	assert.Equal(t, "a1", notifier.alerts[0].AlertID)
	assert.Equal(t, "a2", notifier.alerts[1].AlertID)

	analyzer.AssertExpectations(t)
}

func TestPropagationConsumer_StartStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	cfg := testConfig()
	cacheManager := NewCacheManager(cfg, store.NewRedisKV(redisClient), zap.NewNop())
	analyzer := new(MockFarmAnalyzer)
	analyzer.On("AnalyzeFarm", mock.Anything, "farm-1").Return([]propagation.PlotAlerts{
		{Plot: models.Plot{PlotID: "plot-1"}, Alerts: []models.PropagationAlert{}},
	}, nil)

	consumer := NewPropagationConsumer(cfg, analyzer, cacheManager, nil, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx) }()

	require.Eventually(t, func() bool {
		return mr.Exists("plotwatch:plot:plot-1:propagation")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
