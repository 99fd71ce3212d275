package propagation

import (
	"context"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockPlotRepository 地块仓库 mock
type MockPlotRepository struct {
	mock.Mock
}

func (m *MockPlotRepository) GetPlotByID(ctx context.Context, plotID string) (*models.Plot, error) {
	args := m.Called(ctx, plotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plot), args.Error(1)
}

func (m *MockPlotRepository) ListPlotsByFarm(ctx context.Context, farmID string) ([]models.Plot, error) {
	args := m.Called(ctx, farmID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plot), args.Error(1)
}

// MockPlantRepository 植物仓库 mock
type MockPlantRepository struct {
	mock.Mock
}

func (m *MockPlantRepository) FindPlantsByPlotID(ctx context.Context, plotID string) ([]models.Plant, error) {
	args := m.Called(ctx, plotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plant), args.Error(1)
}

var (
	blight = models.DiseaseRef{DiseaseID: "d-blight", DiseaseName: "Late blight"}
	rust   = models.DiseaseRef{DiseaseID: "d-rust", DiseaseName: "Leaf rust"}
)

func placed(id string, row, col int, health models.Health) models.Plant {
	return models.Plant{
		PlantID:  id,
		PlotID:   "plot-1",
		Position: &models.Position{Row: row, Column: col},
		Health:   health,
	}
}

func unplaced(id string, health models.Health) models.Plant {
	return models.Plant{PlantID: id, PlotID: "plot-1", Health: health}
}

func testPlot(rows, columns int) *models.Plot {
	return &models.Plot{PlotID: "plot-1", FarmID: "farm-1", Rows: rows, Columns: columns}
}
