package httpapi

import (
	"net/http"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/consumer"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/propagation"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/service"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（方法 + 路径参数）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoutes 健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("GET /health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterPropagationRoutes 传播分析查询
func (r *Router) RegisterPropagationRoutes(h *PropagationHandler) {
	r.Handle("GET /api/v1/plots/{plotId}/propagation", h.GetPlotPropagation)
	r.Handle("GET /api/v1/plots/{plotId}/propagation/cached", h.GetCachedPlotPropagation)
	r.Handle("GET /api/v1/plots/{plotId}/propagation/export", h.ExportPlotPropagation)
	r.Handle("GET /api/v1/farms/{farmId}/propagation", h.GetFarmPropagation)
}

// RegisterPlantRoutes 地块与植物写入
func (r *Router) RegisterPlantRoutes(h *PlantHandler) {
	r.Handle("POST /api/v1/plots", h.CreatePlot)
	r.Handle("PUT /api/v1/plots/{plotId}/dimensions", h.ResizePlot)
	r.Handle("POST /api/v1/plots/{plotId}/plants", h.CreatePlant)
	r.Handle("POST /api/v1/plants/{plantId}/diagnosis", h.Diagnose)
	r.Handle("POST /api/v1/plants/{plantId}/treatments", h.AddTreatment)
	r.Handle("PUT /api/v1/plants/{plantId}/status", h.SetStatus)
}

// NewHandler 注册全部路由
func NewHandler(
	analyzer *propagation.Analyzer,
	batch *propagation.BatchAnalyzer,
	cache *consumer.CacheManager,
	plants *service.PlantService,
	logger *zap.Logger,
) http.Handler {
	router := NewRouter(logger)
	router.RegisterHealthRoutes()
	router.RegisterPropagationRoutes(NewPropagationHandler(analyzer, batch, cache, logger))
	router.RegisterPlantRoutes(NewPlantHandler(plants, logger))
	return router
}
