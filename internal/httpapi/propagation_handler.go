package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/propagation"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/report"

	"go.uber.org/zap"
)

// PlotAnalyzer 单地块分析
type PlotAnalyzer interface {
	AnalyzePropagation(ctx context.Context, plotID string) ([]models.PropagationAlert, error)
}

// FarmAnalyzer 农场批量分析
type FarmAnalyzer interface {
	AnalyzeFarm(ctx context.Context, farmID string) ([]propagation.PlotAlerts, error)
}

// AlertCache 轮询结果缓存
type AlertCache interface {
	GetAlertCache(ctx context.Context, plotID string) ([]models.PropagationAlert, error)
}

// PropagationHandler 传播分析 Handler
type PropagationHandler struct {
	analyzer PlotAnalyzer
	batch    FarmAnalyzer
	cache    AlertCache
	logger   *zap.Logger
}

// NewPropagationHandler 创建 PropagationHandler
func NewPropagationHandler(analyzer PlotAnalyzer, batch FarmAnalyzer, cache AlertCache, logger *zap.Logger) *PropagationHandler {
	return &PropagationHandler{
		analyzer: analyzer,
		batch:    batch,
		cache:    cache,
		logger:   logger,
	}
}

// GetPlotPropagation 实时分析地块
// GET /api/v1/plots/{plotId}/propagation
func (h *PropagationHandler) GetPlotPropagation(w http.ResponseWriter, r *http.Request) {
	plotID := r.PathValue("plotId")

	alerts, err := h.analyzer.AnalyzePropagation(r.Context(), plotID)
	if err != nil {
		h.fail(w, "GetPlotPropagation failed", err, zap.String("plot_id", plotID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(alerts))
}

// GetCachedPlotPropagation 读取最近一次轮询结果
// GET /api/v1/plots/{plotId}/propagation/cached
func (h *PropagationHandler) GetCachedPlotPropagation(w http.ResponseWriter, r *http.Request) {
	plotID := r.PathValue("plotId")

	alerts, err := h.cache.GetAlertCache(r.Context(), plotID)
	if err != nil {
		h.fail(w, "GetCachedPlotPropagation failed", err, zap.String("plot_id", plotID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(alerts))
}

// ExportPlotPropagation 导出地块分析结果（xlsx）
// GET /api/v1/plots/{plotId}/propagation/export
func (h *PropagationHandler) ExportPlotPropagation(w http.ResponseWriter, r *http.Request) {
	plotID := r.PathValue("plotId")

	alerts, err := h.analyzer.AnalyzePropagation(r.Context(), plotID)
	if err != nil {
		h.fail(w, "ExportPlotPropagation failed", err, zap.String("plot_id", plotID))
		return
	}

	excelData, err := report.GeneratePropagationReport(plotID, alerts)
	if err != nil {
		h.fail(w, "GeneratePropagationReport failed", err, zap.String("plot_id", plotID))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=propagation-%s.xlsx", plotID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(excelData)
}

// GetFarmPropagation 分析农场下所有地块
// GET /api/v1/farms/{farmId}/propagation
func (h *PropagationHandler) GetFarmPropagation(w http.ResponseWriter, r *http.Request) {
	farmID := r.PathValue("farmId")

	results, err := h.batch.AnalyzeFarm(r.Context(), farmID)
	if err != nil {
		h.fail(w, "GetFarmPropagation failed", err, zap.String("farm_id", farmID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(results))
}

// fail 记录日志并按错误类型返回状态码；500 不暴露内部错误
func (h *PropagationHandler) fail(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	writeError(w, h.logger, msg, err, fields...)
}

func writeError(w http.ResponseWriter, logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	status := statusForError(err)
	fields = append(fields, zap.Error(err))
	if status == http.StatusInternalServerError {
		logger.Error(msg, fields...)
		writeJSON(w, status, Fail("internal error"))
		return
	}
	logger.Warn(msg, fields...)
	writeJSON(w, status, Fail(err.Error()))
}
