package service

import (
	"context"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockPlotRepository 是 PlotRepository 的 mock 实现
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

func (m *MockPlotRepository) CreatePlot(ctx context.Context, plot *models.Plot) error {
	args := m.Called(ctx, plot)
	return args.Error(0)
}

func (m *MockPlotRepository) UpdatePlot(ctx context.Context, plot *models.Plot) error {
	args := m.Called(ctx, plot)
	return args.Error(0)
}

// MockPlantRepository 是 PlantRepository 的 mock 实现
type MockPlantRepository struct {
	mock.Mock
}

func (m *MockPlantRepository) GetPlantByID(ctx context.Context, plantID string) (*models.Plant, error) {
	args := m.Called(ctx, plantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plant), args.Error(1)
}

func (m *MockPlantRepository) FindPlantsByPlotID(ctx context.Context, plotID string) ([]models.Plant, error) {
	args := m.Called(ctx, plotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Plant), args.Error(1)
}

func (m *MockPlantRepository) FindPlantByPlotIDAndPosition(ctx context.Context, plotID string, row, column int) (*models.Plant, error) {
	args := m.Called(ctx, plotID, row, column)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plant), args.Error(1)
}

func (m *MockPlantRepository) CreatePlant(ctx context.Context, plant *models.Plant) error {
	args := m.Called(ctx, plant)
	return args.Error(0)
}

func (m *MockPlantRepository) UpdatePlant(ctx context.Context, plant *models.Plant) error {
	args := m.Called(ctx, plant)
	return args.Error(0)
}

func (m *MockPlantRepository) CreateTreatment(ctx context.Context, record *models.TreatmentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
