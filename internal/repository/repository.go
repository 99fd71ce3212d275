package repository

import (
	"context"
	"errors"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
)

var (
	// ErrNotFound 实体不存在
	ErrNotFound = errors.New("not found")
	// ErrConflict 违反唯一约束（如同一格子已有植物）
	ErrConflict = errors.New("conflict")
)

// PlotRepository 地块仓库
type PlotRepository interface {
	// GetPlotByID 不存在时返回包装了 ErrNotFound 的错误
	GetPlotByID(ctx context.Context, plotID string) (*models.Plot, error)
	ListPlotsByFarm(ctx context.Context, farmID string) ([]models.Plot, error)
	CreatePlot(ctx context.Context, plot *models.Plot) error
	UpdatePlot(ctx context.Context, plot *models.Plot) error
}

// PlantRepository 植物仓库
type PlantRepository interface {
	GetPlantByID(ctx context.Context, plantID string) (*models.Plant, error)
	// FindPlantsByPlotID 按创建顺序返回
	FindPlantsByPlotID(ctx context.Context, plotID string) ([]models.Plant, error)
	// FindPlantByPlotIDAndPosition 位置空闲时返回 nil, nil
	FindPlantByPlotIDAndPosition(ctx context.Context, plotID string, row, column int) (*models.Plant, error)
	// CreatePlant 目标格子已被占用时返回包装了 ErrConflict 的错误
	CreatePlant(ctx context.Context, plant *models.Plant) error
	UpdatePlant(ctx context.Context, plant *models.Plant) error
	CreateTreatment(ctx context.Context, record *models.TreatmentRecord) error
}
