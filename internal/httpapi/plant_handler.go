package httpapi

import (
	"net/http"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/service"

	"go.uber.org/zap"
)

// PlantHandler 地块/植物写入 Handler
type PlantHandler struct {
	plants *service.PlantService
	logger *zap.Logger
}

// NewPlantHandler 创建 PlantHandler
func NewPlantHandler(plants *service.PlantService, logger *zap.Logger) *PlantHandler {
	return &PlantHandler{plants: plants, logger: logger}
}

// CreatePlot POST /api/v1/plots
func (h *PlantHandler) CreatePlot(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePlotRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	plot, err := h.plants.CreatePlot(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "CreatePlot failed", err, zap.String("farm_id", req.FarmID))
		return
	}
	writeJSON(w, http.StatusCreated, Ok(plot))
}

type resizeRequest struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// ResizePlot PUT /api/v1/plots/{plotId}/dimensions
func (h *PlantHandler) ResizePlot(w http.ResponseWriter, r *http.Request) {
	plotID := r.PathValue("plotId")
	var req resizeRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	result, err := h.plants.ResizePlot(r.Context(), plotID, req.Rows, req.Columns)
	if err != nil {
		writeError(w, h.logger, "ResizePlot failed", err, zap.String("plot_id", plotID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// CreatePlant POST /api/v1/plots/{plotId}/plants
func (h *PlantHandler) CreatePlant(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePlantRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	req.PlotID = r.PathValue("plotId")

	plant, err := h.plants.CreatePlant(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "CreatePlant failed", err, zap.String("plot_id", req.PlotID))
		return
	}
	writeJSON(w, http.StatusCreated, Ok(plant))
}

// Diagnose POST /api/v1/plants/{plantId}/diagnosis
func (h *PlantHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantId")
	var ref models.DiseaseRef
	if err := readBodyJSON(r, maxBodyBytes, &ref); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	plant, err := h.plants.Diagnose(r.Context(), plantID, ref)
	if err != nil {
		writeError(w, h.logger, "Diagnose failed", err, zap.String("plant_id", plantID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(plant))
}

type treatmentRequest struct {
	Description string `json:"description"`
}

// AddTreatment POST /api/v1/plants/{plantId}/treatments
func (h *PlantHandler) AddTreatment(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantId")
	var req treatmentRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	plant, err := h.plants.AddTreatment(r.Context(), plantID, req.Description)
	if err != nil {
		writeError(w, h.logger, "AddTreatment failed", err, zap.String("plant_id", plantID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(plant))
}

type statusRequest struct {
	Status models.PlantStatus `json:"status"`
}

// SetStatus PUT /api/v1/plants/{plantId}/status
func (h *PlantHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantId")
	var req statusRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	plant, err := h.plants.SetStatus(r.Context(), plantID, req.Status)
	if err != nil {
		writeError(w, h.logger, "SetStatus failed", err, zap.String("plant_id", plantID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(plant))
}
