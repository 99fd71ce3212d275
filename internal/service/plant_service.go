package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrValidation 请求参数或数据不满足约束（越界、格子已占用等）
	ErrValidation = errors.New("validation error")
	// ErrInvalidTransition 植物状态不允许该转换（Dead 为终态）
	ErrInvalidTransition = errors.New("invalid status transition")
)

// PlantService 植物写入与状态机
// 传播分析只读取状态，所有状态变更都经过这里。
type PlantService struct {
	plots  repository.PlotRepository
	plants repository.PlantRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewPlantService 创建植物服务
func NewPlantService(plots repository.PlotRepository, plants repository.PlantRepository, logger *zap.Logger) *PlantService {
	return &PlantService{
		plots:  plots,
		plants: plants,
		logger: logger,
		now:    time.Now,
	}
}

// CreatePlotRequest 创建地块请求
type CreatePlotRequest struct {
	FarmID  string `json:"farm_id"`
	Name    string `json:"plot_name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// CreatePlot 创建地块
func (s *PlantService) CreatePlot(ctx context.Context, req CreatePlotRequest) (*models.Plot, error) {
	if strings.TrimSpace(req.FarmID) == "" {
		return nil, fmt.Errorf("%w: farm_id is required", ErrValidation)
	}
	if err := validateDimensions(req.Rows, req.Columns); err != nil {
		return nil, err
	}

	plot := &models.Plot{
		FarmID:  req.FarmID,
		Name:    req.Name,
		Rows:    req.Rows,
		Columns: req.Columns,
	}
	if err := s.plots.CreatePlot(ctx, plot); err != nil {
		return nil, fmt.Errorf("failed to create plot: %w", err)
	}

	s.logger.Info("Plot created",
		zap.String("plot_id", plot.PlotID),
		zap.String("farm_id", plot.FarmID),
		zap.Int("rows", plot.Rows),
		zap.Int("columns", plot.Columns),
	)
	return plot, nil
}

// CreatePlantRequest 创建植物请求（新植物为 Healthy）
type CreatePlantRequest struct {
	PlotID    string           `json:"plot_id"`
	Species   string           `json:"species"`
	Position  *models.Position `json:"position,omitempty"`
	PlantedAt *time.Time       `json:"planted_at,omitempty"`
}

// CreatePlant 创建植物：校验坐标在地块范围内且格子未被占用
func (s *PlantService) CreatePlant(ctx context.Context, req CreatePlantRequest) (*models.Plant, error) {
	plot, err := s.plots.GetPlotByID(ctx, req.PlotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plot: %w", err)
	}

	if req.Position != nil {
		if !plot.Contains(*req.Position) {
			return nil, fmt.Errorf("%w: position (%d,%d) outside plot %dx%d",
				ErrValidation, req.Position.Row, req.Position.Column, plot.Rows, plot.Columns)
		}
		occupant, err := s.plants.FindPlantByPlotIDAndPosition(ctx, plot.PlotID, req.Position.Row, req.Position.Column)
		if err != nil {
			return nil, fmt.Errorf("failed to check position: %w", err)
		}
		if occupant != nil {
			return nil, fmt.Errorf("%w: position (%d,%d) already occupied by plant %s",
				ErrValidation, req.Position.Row, req.Position.Column, occupant.PlantID)
		}
	}

	plant := &models.Plant{
		PlotID:    plot.PlotID,
		Species:   req.Species,
		Position:  req.Position,
		Health:    models.HealthyState(),
		PlantedAt: req.PlantedAt,
	}
	if err := s.plants.CreatePlant(ctx, plant); err != nil {
		// 并发创建时由存储层兜底唯一性
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to create plant: %w", err)
	}

	s.logger.Info("Plant created",
		zap.String("plant_id", plant.PlantID),
		zap.String("plot_id", plant.PlotID),
	)
	return plant, nil
}

// Diagnose 确诊：任意非 Dead 状态 → Diseased，记录确诊时间
func (s *PlantService) Diagnose(ctx context.Context, plantID string, ref models.DiseaseRef) (*models.Plant, error) {
	if strings.TrimSpace(ref.DiseaseID) == "" {
		return nil, fmt.Errorf("%w: disease_id is required", ErrValidation)
	}
	return s.transition(ctx, plantID, models.StatusDiseased, func(p *models.Plant) {
		now := s.now()
		p.Health = models.DiseasedState(ref)
		p.DiagnosedAt = &now
	})
}

// AddTreatment 记录治疗；只有 Diseased 会转为 Recovering，其他状态保持不变
func (s *PlantService) AddTreatment(ctx context.Context, plantID, description string) (*models.Plant, error) {
	plant, err := s.plants.GetPlantByID(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}

	record := &models.TreatmentRecord{
		PlantID:     plant.PlantID,
		Description: description,
		AppliedAt:   s.now(),
	}
	if err := s.plants.CreateTreatment(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record treatment: %w", err)
	}

	if plant.Status() != models.StatusDiseased {
		return plant, nil
	}
	ref, _ := plant.Health.Disease()
	plant.Health = models.RecoveringState(ref)
	if err := s.plants.UpdatePlant(ctx, plant); err != nil {
		return nil, fmt.Errorf("failed to update plant: %w", err)
	}

	s.logStatusChange(plant.PlantID, models.StatusDiseased, models.StatusRecovering)
	return plant, nil
}

// MarkHealthy → Healthy，清除病害引用
func (s *PlantService) MarkHealthy(ctx context.Context, plantID string) (*models.Plant, error) {
	return s.transition(ctx, plantID, models.StatusHealthy, func(p *models.Plant) {
		p.Health = models.HealthyState()
	})
}

// ObservePlant → UnderObservation
func (s *PlantService) ObservePlant(ctx context.Context, plantID string) (*models.Plant, error) {
	return s.transition(ctx, plantID, models.StatusUnderObservation, func(p *models.Plant) {
		p.Health = models.UnderObservationState()
	})
}

// MarkDead → Dead（终态）
func (s *PlantService) MarkDead(ctx context.Context, plantID string) (*models.Plant, error) {
	plant, err := s.plants.GetPlantByID(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}
	if plant.Status() == models.StatusDead {
		return plant, nil
	}
	from := plant.Status()
	plant.Health = models.DeadState()
	if err := s.plants.UpdatePlant(ctx, plant); err != nil {
		return nil, fmt.Errorf("failed to update plant: %w", err)
	}
	s.logStatusChange(plant.PlantID, from, models.StatusDead)
	return plant, nil
}

// SetStatus 按目标状态分发（HTTP 使用）
func (s *PlantService) SetStatus(ctx context.Context, plantID string, status models.PlantStatus) (*models.Plant, error) {
	switch status {
	case models.StatusHealthy:
		return s.MarkHealthy(ctx, plantID)
	case models.StatusUnderObservation:
		return s.ObservePlant(ctx, plantID)
	case models.StatusDead:
		return s.MarkDead(ctx, plantID)
	case models.StatusDiseased, models.StatusRecovering:
		return nil, fmt.Errorf("%w: status %s is set by diagnosis or treatment", ErrValidation, status)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
}

// transition 通用状态转换：Dead 不允许转出
func (s *PlantService) transition(ctx context.Context, plantID string, to models.PlantStatus, apply func(p *models.Plant)) (*models.Plant, error) {
	plant, err := s.plants.GetPlantByID(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}

	from := plant.Status()
	if from == models.StatusDead {
		return nil, fmt.Errorf("%w: plant %s is dead, cannot become %s", ErrInvalidTransition, plantID, to)
	}

	apply(plant)
	if err := s.plants.UpdatePlant(ctx, plant); err != nil {
		return nil, fmt.Errorf("failed to update plant: %w", err)
	}
	s.logStatusChange(plant.PlantID, from, to)
	return plant, nil
}

func (s *PlantService) logStatusChange(plantID string, from, to models.PlantStatus) {
	s.logger.Info("Plant status changed",
		zap.String("plant_id", plantID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}

func validateDimensions(rows, columns int) error {
	if rows <= 0 || columns <= 0 {
		return fmt.Errorf("%w: rows and columns must be positive", ErrValidation)
	}
	if !models.ValidDimensions(rows, columns) {
		return fmt.Errorf("%w: plot %dx%d exceeds %d cells", ErrValidation, rows, columns, models.MaxPlotCells)
	}
	return nil
}

// ResizeResult 调整地块尺寸结果
type ResizeResult struct {
	Plot *models.Plot `json:"plot"`
	// 新尺寸下越界的植物（保留数据，分析时排除）
	OrphanedPlantIDs []string `json:"orphaned_plant_ids"`
}

// ResizePlot 调整地块尺寸；缩小后越界的植物不会被删除
func (s *PlantService) ResizePlot(ctx context.Context, plotID string, rows, columns int) (*ResizeResult, error) {
	if err := validateDimensions(rows, columns); err != nil {
		return nil, err
	}

	plot, err := s.plots.GetPlotByID(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plot: %w", err)
	}
	plot.Rows = rows
	plot.Columns = columns
	if err := s.plots.UpdatePlot(ctx, plot); err != nil {
		return nil, fmt.Errorf("failed to update plot: %w", err)
	}

	plants, err := s.plants.FindPlantsByPlotID(ctx, plotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plants: %w", err)
	}
	orphaned := []string{}
	for _, p := range plants {
		if p.Position != nil && !plot.Contains(*p.Position) {
			orphaned = append(orphaned, p.PlantID)
		}
	}
	if len(orphaned) > 0 {
		s.logger.Warn("Plot resize left plants outside grid",
			zap.String("plot_id", plotID),
			zap.Int("rows", rows),
			zap.Int("columns", columns),
			zap.Int("orphaned_count", len(orphaned)),
		)
	}

	return &ResizeResult{Plot: plot, OrphanedPlantIDs: orphaned}, nil
}
