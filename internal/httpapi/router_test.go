package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/config"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/consumer"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/propagation"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/repository"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/service"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router http.Handler
	cache  *consumer.CacheManager
}

func setupRouter(t *testing.T) *testServer {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	kv := store.NewRedisKV(client)

	cfg := &config.Config{}
	cfg.Propagation.Cache.AlertKeyPrefix = "plotwatch:plot:"
	cfg.Propagation.Cache.AlertSuffix = ":propagation"
	cfg.Propagation.Cache.AlertTTL = 60

	logger := zap.NewNop()
	plots, plants := repository.NewKVRepositories(kv, "plotwatch:")
	analyzer := propagation.NewAnalyzer(plots, plants, logger)
	batch := propagation.NewBatchAnalyzer(plots, analyzer, 2, logger)
	cache := consumer.NewCacheManager(cfg, kv, logger)

	router := NewHandler(analyzer, batch, cache, service.NewPlantService(plots, plants, logger), logger)

	return &testServer{router: router, cache: cache}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	var res Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealth(t *testing.T) {
	s := setupRouter(t)

	rec := s.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ResultSuccess, decode[map[string]string](t, rec).Code)
}

func TestPropagationFlow(t *testing.T) {
	s := setupRouter(t)

	rec := s.do(t, http.MethodPost, "/api/v1/plots", service.CreatePlotRequest{FarmID: "farm-1", Name: "North", Rows: 2, Columns: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	plot := decode[models.Plot](t, rec).Result
	require.NotEmpty(t, plot.PlotID)

	var plantIDs []string
	for _, pos := range []models.Position{{Row: 0, Column: 0}, {Row: 0, Column: 1}, {Row: 1, Column: 0}, {Row: 1, Column: 1}} {
		pos := pos
		rec = s.do(t, http.MethodPost, "/api/v1/plots/"+plot.PlotID+"/plants", service.CreatePlantRequest{Species: "Tomato", Position: &pos})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		plantIDs = append(plantIDs, decode[models.Plant](t, rec).Result.PlantID)
	}

	// 格子已被占用
	rec = s.do(t, http.MethodPost, "/api/v1/plots/"+plot.PlotID+"/plants", service.CreatePlantRequest{Position: &models.Position{Row: 1, Column: 1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ResultError, decode[any](t, rec).Code)

	blight := models.DiseaseRef{DiseaseID: "d-blight", DiseaseName: "Late blight"}
	for _, id := range plantIDs[:2] {
		rec = s.do(t, http.MethodPost, "/api/v1/plants/"+id+"/diagnosis", blight)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, models.StatusDiseased, decode[models.Plant](t, rec).Result.Status())
	}

	rec = s.do(t, http.MethodGet, "/api/v1/plots/"+plot.PlotID+"/propagation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]models.PropagationAlert](t, rec).Result
	require.Len(t, alerts, 1)
	assert.Equal(t, models.RiskCritical, alerts[0].RiskLevel)
	assert.Equal(t, 2, alerts[0].AdjacentHealthyCount)
	assert.Equal(t, "farm-1", alerts[0].FarmID)

	rec = s.do(t, http.MethodGet, "/api/v1/farms/farm-1/propagation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	farm := decode[[]propagation.PlotAlerts](t, rec).Result
	require.Len(t, farm, 1)
	assert.Equal(t, plot.PlotID, farm[0].Plot.PlotID)
	assert.Len(t, farm[0].Alerts, 1)

	rec = s.do(t, http.MethodGet, "/api/v1/plots/"+plot.PlotID+"/propagation/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())

	// 治疗后转为 Recovering，不再计入
	rec = s.do(t, http.MethodPost, "/api/v1/plants/"+plantIDs[0]+"/treatments", map[string]string{"description": "copper spray"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusRecovering, decode[models.Plant](t, rec).Result.Status())

	rec = s.do(t, http.MethodGet, "/api/v1/plots/"+plot.PlotID+"/propagation", nil)
	alerts = decode[[]models.PropagationAlert](t, rec).Result
	require.Len(t, alerts, 1)
	assert.Equal(t, 1, alerts[0].InfectedCount)

	// Dead 不可转出
	rec = s.do(t, http.MethodPut, "/api/v1/plants/"+plantIDs[2]+"/status", map[string]string{"status": "Dead"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/v1/plants/"+plantIDs[2]+"/status", map[string]string{"status": "Healthy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/plots/"+plot.PlotID+"/dimensions", map[string]int{"rows": 1, "columns": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	resized := decode[service.ResizeResult](t, rec).Result
	assert.Len(t, resized.OrphanedPlantIDs, 2)
}

func TestPlotNotFound(t *testing.T) {
	s := setupRouter(t)

	rec := s.do(t, http.MethodGet, "/api/v1/plots/missing/propagation", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/plots/missing/plants", service.CreatePlantRequest{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/plants/missing/diagnosis", models.DiseaseRef{DiseaseID: "d-1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCachedPropagation(t *testing.T) {
	s := setupRouter(t)

	rec := s.do(t, http.MethodGet, "/api/v1/plots/plot-1/propagation/cached", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.cache.UpdateAlertCache(context.Background(), "plot-1", []models.PropagationAlert{
		{AlertID: "a1", PlotID: "plot-1", RiskLevel: models.RiskHigh},
	}))

	rec = s.do(t, http.MethodGet, "/api/v1/plots/plot-1/propagation/cached", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]models.PropagationAlert](t, rec).Result
	require.Len(t, alerts, 1)
	assert.Equal(t, "a1", alerts[0].AlertID)
}

func TestMethodNotAllowed(t *testing.T) {
	s := setupRouter(t)

	rec := s.do(t, http.MethodDelete, "/api/v1/plots/plot-1/propagation", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInvalidBody(t *testing.T) {
	s := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plots", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOversizedPlotRejected(t *testing.T) {
	s := setupRouter(t)

	rec := s.do(t, http.MethodPost, "/api/v1/plots", map[string]any{"farm_id": "farm-1", "rows": 1 << 32, "columns": 1 << 32})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/plots", service.CreatePlotRequest{FarmID: "farm-1", Rows: 2, Columns: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	plot := decode[models.Plot](t, rec).Result

	rec = s.do(t, http.MethodPut, "/api/v1/plots/"+plot.PlotID+"/dimensions", map[string]int{"rows": 100000, "columns": 100000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/farms/farm-1/propagation", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
