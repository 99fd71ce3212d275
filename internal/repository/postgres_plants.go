package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ PlantRepository = (*PostgresPlantRepository)(nil)

// uniqueViolation PostgreSQL unique_violation 错误码
const uniqueViolation = "23505"

// PostgresPlantRepository 植物仓库（PostgreSQL）
type PostgresPlantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresPlantRepository 创建植物仓库
func NewPostgresPlantRepository(db *sql.DB, logger *zap.Logger) *PostgresPlantRepository {
	return &PostgresPlantRepository{
		db:     db,
		logger: logger,
	}
}

const plantColumns = `
			plant_id,
			plot_id,
			species,
			position_row,
			position_column,
			status,
			disease_id,
			disease_name,
			diagnosed_at,
			planted_at,
			created_at,
			updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPlant 扫描一行植物数据并还原健康状态
func scanPlant(row rowScanner) (*models.Plant, error) {
	var plant models.Plant
	var posRow, posColumn sql.NullInt64
	var status string
	var diseaseID, diseaseName sql.NullString
	var diagnosedAt, plantedAt sql.NullTime

	if err := row.Scan(
		&plant.PlantID,
		&plant.PlotID,
		&plant.Species,
		&posRow,
		&posColumn,
		&status,
		&diseaseID,
		&diseaseName,
		&diagnosedAt,
		&plantedAt,
		&plant.CreatedAt,
		&plant.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if posRow.Valid && posColumn.Valid {
		plant.Position = &models.Position{Row: int(posRow.Int64), Column: int(posColumn.Int64)}
	}
	if diagnosedAt.Valid {
		plant.DiagnosedAt = &diagnosedAt.Time
	}
	if plantedAt.Valid {
		plant.PlantedAt = &plantedAt.Time
	}

	var disease *models.DiseaseRef
	if diseaseID.Valid && diseaseID.String != "" {
		disease = &models.DiseaseRef{DiseaseID: diseaseID.String, DiseaseName: diseaseName.String}
	}
	health, err := models.NewHealth(models.PlantStatus(status), disease)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plant %s: %w", plant.PlantID, err)
	}
	plant.Health = health

	return &plant, nil
}

// plantArgs 植物写入参数（与 plantColumns 顺序一致）
func plantArgs(plant *models.Plant) []interface{} {
	var posRow, posColumn sql.NullInt64
	if plant.Position != nil {
		posRow = sql.NullInt64{Int64: int64(plant.Position.Row), Valid: true}
		posColumn = sql.NullInt64{Int64: int64(plant.Position.Column), Valid: true}
	}
	var diseaseID, diseaseName sql.NullString
	if ref, ok := plant.Health.Disease(); ok {
		diseaseID = sql.NullString{String: ref.DiseaseID, Valid: true}
		diseaseName = sql.NullString{String: ref.DiseaseName, Valid: true}
	}
	return []interface{}{
		plant.PlantID,
		plant.PlotID,
		plant.Species,
		posRow,
		posColumn,
		string(plant.Status()),
		diseaseID,
		diseaseName,
		plant.DiagnosedAt,
		plant.PlantedAt,
		plant.CreatedAt,
		plant.UpdatedAt,
	}
}

// GetPlantByID 根据植物ID获取植物
func (r *PostgresPlantRepository) GetPlantByID(ctx context.Context, plantID string) (*models.Plant, error) {
	query := `SELECT` + plantColumns + `
		FROM plants
		WHERE plant_id = $1
	`
	plant, err := scanPlant(r.db.QueryRowContext(ctx, query, plantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plant %s: %w", plantID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query plant: %w", err)
	}
	return plant, nil
}

// FindPlantsByPlotID 获取地块下所有植物（按创建顺序）
func (r *PostgresPlantRepository) FindPlantsByPlotID(ctx context.Context, plotID string) ([]models.Plant, error) {
	query := `SELECT` + plantColumns + `
		FROM plants
		WHERE plot_id = $1
		ORDER BY created_at, plant_id
	`

	rows, err := r.db.QueryContext(ctx, query, plotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plants: %w", err)
	}
	defer rows.Close()

	var plants []models.Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plant: %w", err)
		}
		plants = append(plants, *plant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plants: %w", err)
	}

	return plants, nil
}

// FindPlantByPlotIDAndPosition 查询指定格子上的植物（空闲返回 nil, nil）
func (r *PostgresPlantRepository) FindPlantByPlotIDAndPosition(ctx context.Context, plotID string, row, column int) (*models.Plant, error) {
	query := `SELECT` + plantColumns + `
		FROM plants
		WHERE plot_id = $1 AND position_row = $2 AND position_column = $3
		LIMIT 1
	`
	plant, err := scanPlant(r.db.QueryRowContext(ctx, query, plotID, row, column))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query plant by position: %w", err)
	}
	return plant, nil
}

// CreatePlant 创建植物（plant_id 为空时自动生成）
func (r *PostgresPlantRepository) CreatePlant(ctx context.Context, plant *models.Plant) error {
	if plant == nil {
		return fmt.Errorf("plant is required")
	}
	if plant.PlantID == "" {
		plant.PlantID = uuid.NewString()
	}
	now := time.Now()
	plant.CreatedAt = now
	plant.UpdatedAt = now

	query := `INSERT INTO plants (` + plantColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := r.db.ExecContext(ctx, query, plantArgs(plant)...); err != nil {
		// plants_plot_position_key 唯一索引，见 schema.sql
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("position already occupied in plot %s: %w", plant.PlotID, ErrConflict)
		}
		return fmt.Errorf("failed to create plant: %w", err)
	}
	return nil
}

// UpdatePlant 更新植物（位置、状态、病害）
func (r *PostgresPlantRepository) UpdatePlant(ctx context.Context, plant *models.Plant) error {
	if plant == nil || plant.PlantID == "" {
		return fmt.Errorf("plant_id is required")
	}
	plant.UpdatedAt = time.Now()

	query := `
		UPDATE plants
		SET plot_id = $2,
			species = $3,
			position_row = $4,
			position_column = $5,
			status = $6,
			disease_id = $7,
			disease_name = $8,
			diagnosed_at = $9,
			planted_at = $10,
			updated_at = $11
		WHERE plant_id = $1
	`
	// created_at 不更新
	args := plantArgs(plant)
	args = append(args[:10], args[11])
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update plant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("plant %s: %w", plant.PlantID, ErrNotFound)
	}
	return nil
}

// CreateTreatment 写入治疗记录
func (r *PostgresPlantRepository) CreateTreatment(ctx context.Context, record *models.TreatmentRecord) error {
	if record == nil {
		return fmt.Errorf("treatment record is required")
	}
	if record.TreatmentID == "" {
		record.TreatmentID = uuid.NewString()
	}

	query := `
		INSERT INTO plant_treatments (treatment_id, plant_id, description, applied_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query,
		record.TreatmentID, record.PlantID, record.Description, record.AppliedAt,
	); err != nil {
		return fmt.Errorf("failed to create treatment: %w", err)
	}
	return nil
}
