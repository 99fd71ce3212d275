package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ PlotRepository = (*PostgresPlotRepository)(nil)

// PostgresPlotRepository 地块仓库（PostgreSQL）
type PostgresPlotRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresPlotRepository 创建地块仓库
func NewPostgresPlotRepository(db *sql.DB, logger *zap.Logger) *PostgresPlotRepository {
	return &PostgresPlotRepository{
		db:     db,
		logger: logger,
	}
}

// GetPlotByID 根据地块ID获取地块
func (r *PostgresPlotRepository) GetPlotByID(ctx context.Context, plotID string) (*models.Plot, error) {
	if plotID == "" {
		return nil, fmt.Errorf("plot_id is required")
	}

	query := `
		SELECT
			plot_id,
			farm_id,
			plot_name,
			grid_rows,
			grid_columns,
			created_at,
			updated_at
		FROM plots
		WHERE plot_id = $1
	`

	var plot models.Plot
	err := r.db.QueryRowContext(ctx, query, plotID).Scan(
		&plot.PlotID,
		&plot.FarmID,
		&plot.Name,
		&plot.Rows,
		&plot.Columns,
		&plot.CreatedAt,
		&plot.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plot %s: %w", plotID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query plot: %w", err)
	}

	return &plot, nil
}

// ListPlotsByFarm 获取农场下所有地块
func (r *PostgresPlotRepository) ListPlotsByFarm(ctx context.Context, farmID string) ([]models.Plot, error) {
	query := `
		SELECT
			plot_id,
			farm_id,
			plot_name,
			grid_rows,
			grid_columns,
			created_at,
			updated_at
		FROM plots
		WHERE farm_id = $1
		ORDER BY created_at, plot_id
	`

	rows, err := r.db.QueryContext(ctx, query, farmID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plots: %w", err)
	}
	defer rows.Close()

	var plots []models.Plot
	for rows.Next() {
		var plot models.Plot
		if err := rows.Scan(
			&plot.PlotID,
			&plot.FarmID,
			&plot.Name,
			&plot.Rows,
			&plot.Columns,
			&plot.CreatedAt,
			&plot.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan plot: %w", err)
		}
		plots = append(plots, plot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plots: %w", err)
	}

	return plots, nil
}

// CreatePlot 创建地块（plot_id 为空时自动生成）
func (r *PostgresPlotRepository) CreatePlot(ctx context.Context, plot *models.Plot) error {
	if plot == nil {
		return fmt.Errorf("plot is required")
	}
	if plot.PlotID == "" {
		plot.PlotID = uuid.NewString()
	}
	now := time.Now()
	plot.CreatedAt = now
	plot.UpdatedAt = now

	query := `
		INSERT INTO plots (plot_id, farm_id, plot_name, grid_rows, grid_columns, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		plot.PlotID, plot.FarmID, plot.Name, plot.Rows, plot.Columns, plot.CreatedAt, plot.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create plot: %w", err)
	}
	return nil
}

// UpdatePlot 更新地块名称和尺寸
func (r *PostgresPlotRepository) UpdatePlot(ctx context.Context, plot *models.Plot) error {
	if plot == nil || plot.PlotID == "" {
		return fmt.Errorf("plot_id is required")
	}
	plot.UpdatedAt = time.Now()

	query := `
		UPDATE plots
		SET plot_name = $2, grid_rows = $3, grid_columns = $4, updated_at = $5
		WHERE plot_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, plot.PlotID, plot.Name, plot.Rows, plot.Columns, plot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update plot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("plot %s: %w", plot.PlotID, ErrNotFound)
	}
	return nil
}
