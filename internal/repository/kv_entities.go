package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/store"

	"github.com/google/uuid"
)

var (
	_ PlotRepository  = (*KVPlotRepository)(nil)
	_ PlantRepository = (*KVPlantRepository)(nil)
)

// kvEntities 实体以 JSON 形式存放在 KV 中
// 键布局：
//   - <prefix>plot:<plot_id>              地块
//   - <prefix>farm:<farm_id>:plots        农场下地块 ID 列表
//   - <prefix>plot:<plot_id>:plants       地块下植物列表（创建顺序）
//   - <prefix>plant:<plant_id>            植物所属 plot_id
//   - <prefix>plant:<plant_id>:treatments 治疗记录
//
// 读改写只在进程内加锁，多实例同时写同一地块需由上游保证串行。
type kvEntities struct {
	kv     store.KV
	prefix string
	mu     *sync.Mutex
}

func (e kvEntities) plotKey(plotID string) string   { return e.prefix + "plot:" + plotID }
func (e kvEntities) farmKey(farmID string) string   { return e.prefix + "farm:" + farmID + ":plots" }
func (e kvEntities) plantsKey(plotID string) string { return e.prefix + "plot:" + plotID + ":plants" }
func (e kvEntities) plantKey(plantID string) string { return e.prefix + "plant:" + plantID }
func (e kvEntities) treatmentsKey(plantID string) string {
	return e.prefix + "plant:" + plantID + ":treatments"
}

// getJSON 读取并反序列化；键不存在返回 store.ErrMiss
func (e kvEntities) getJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := e.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (e kvEntities) setJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return e.kv.Set(ctx, key, string(data), 0)
}

// getList 读取列表，不存在视为空列表
func (e kvEntities) getList(ctx context.Context, key string, dest interface{}) error {
	err := e.getJSON(ctx, key, dest)
	if errors.Is(err, store.ErrMiss) {
		return nil
	}
	return err
}

// NewKVRepositories 创建基于 KV 的地块/植物仓库（共享同一把锁）
func NewKVRepositories(kv store.KV, prefix string) (*KVPlotRepository, *KVPlantRepository) {
	e := kvEntities{kv: kv, prefix: prefix, mu: &sync.Mutex{}}
	return &KVPlotRepository{e: e}, &KVPlantRepository{e: e}
}

// KVPlotRepository 地块仓库（KV）
type KVPlotRepository struct {
	e kvEntities
}

func (r *KVPlotRepository) GetPlotByID(ctx context.Context, plotID string) (*models.Plot, error) {
	var plot models.Plot
	if err := r.e.getJSON(ctx, r.e.plotKey(plotID), &plot); err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, fmt.Errorf("plot %s: %w", plotID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get plot: %w", err)
	}
	return &plot, nil
}

func (r *KVPlotRepository) ListPlotsByFarm(ctx context.Context, farmID string) ([]models.Plot, error) {
	var ids []string
	if err := r.e.getList(ctx, r.e.farmKey(farmID), &ids); err != nil {
		return nil, fmt.Errorf("failed to get farm plots: %w", err)
	}

	plots := make([]models.Plot, 0, len(ids))
	for _, id := range ids {
		plot, err := r.GetPlotByID(ctx, id)
		if err != nil {
			// 索引残留（地块已删除）直接跳过
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		plots = append(plots, *plot)
	}
	return plots, nil
}

func (r *KVPlotRepository) CreatePlot(ctx context.Context, plot *models.Plot) error {
	if plot == nil {
		return fmt.Errorf("plot is required")
	}
	r.e.mu.Lock()
	defer r.e.mu.Unlock()

	if plot.PlotID == "" {
		plot.PlotID = uuid.NewString()
	}
	now := time.Now()
	plot.CreatedAt = now
	plot.UpdatedAt = now

	if err := r.e.setJSON(ctx, r.e.plotKey(plot.PlotID), plot); err != nil {
		return fmt.Errorf("failed to create plot: %w", err)
	}

	var ids []string
	if err := r.e.getList(ctx, r.e.farmKey(plot.FarmID), &ids); err != nil {
		return fmt.Errorf("failed to get farm plots: %w", err)
	}
	ids = append(ids, plot.PlotID)
	if err := r.e.setJSON(ctx, r.e.farmKey(plot.FarmID), ids); err != nil {
		return fmt.Errorf("failed to update farm plots: %w", err)
	}
	return nil
}

func (r *KVPlotRepository) UpdatePlot(ctx context.Context, plot *models.Plot) error {
	if plot == nil || plot.PlotID == "" {
		return fmt.Errorf("plot_id is required")
	}
	r.e.mu.Lock()
	defer r.e.mu.Unlock()

	current, err := r.GetPlotByID(ctx, plot.PlotID)
	if err != nil {
		return err
	}
	// farm_id 与 created_at 不可修改
	plot.FarmID = current.FarmID
	plot.CreatedAt = current.CreatedAt
	plot.UpdatedAt = time.Now()

	if err := r.e.setJSON(ctx, r.e.plotKey(plot.PlotID), plot); err != nil {
		return fmt.Errorf("failed to update plot: %w", err)
	}
	return nil
}

// KVPlantRepository 植物仓库（KV）
type KVPlantRepository struct {
	e kvEntities
}

func (r *KVPlantRepository) GetPlantByID(ctx context.Context, plantID string) (*models.Plant, error) {
	plotID, err := r.e.kv.Get(ctx, r.e.plantKey(plantID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, fmt.Errorf("plant %s: %w", plantID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get plant index: %w", err)
	}

	plants, err := r.FindPlantsByPlotID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	for i := range plants {
		if plants[i].PlantID == plantID {
			return &plants[i], nil
		}
	}
	return nil, fmt.Errorf("plant %s: %w", plantID, ErrNotFound)
}

func (r *KVPlantRepository) FindPlantsByPlotID(ctx context.Context, plotID string) ([]models.Plant, error) {
	var plants []models.Plant
	if err := r.e.getList(ctx, r.e.plantsKey(plotID), &plants); err != nil {
		return nil, fmt.Errorf("failed to get plants: %w", err)
	}
	return plants, nil
}

func (r *KVPlantRepository) FindPlantByPlotIDAndPosition(ctx context.Context, plotID string, row, column int) (*models.Plant, error) {
	plants, err := r.FindPlantsByPlotID(ctx, plotID)
	if err != nil {
		return nil, err
	}
	for i := range plants {
		pos := plants[i].Position
		if pos != nil && pos.Row == row && pos.Column == column {
			return &plants[i], nil
		}
	}
	return nil, nil
}

func (r *KVPlantRepository) CreatePlant(ctx context.Context, plant *models.Plant) error {
	if plant == nil {
		return fmt.Errorf("plant is required")
	}
	r.e.mu.Lock()
	defer r.e.mu.Unlock()

	plants, err := r.FindPlantsByPlotID(ctx, plant.PlotID)
	if err != nil {
		return err
	}
	if pos := plant.Position; pos != nil {
		for _, existing := range plants {
			if existing.Position != nil && *existing.Position == *pos {
				return fmt.Errorf("position (%d,%d) in plot %s held by plant %s: %w",
					pos.Row, pos.Column, plant.PlotID, existing.PlantID, ErrConflict)
			}
		}
	}

	if plant.PlantID == "" {
		plant.PlantID = uuid.NewString()
	}
	now := time.Now()
	plant.CreatedAt = now
	plant.UpdatedAt = now

	plants = append(plants, *plant)
	if err := r.e.setJSON(ctx, r.e.plantsKey(plant.PlotID), plants); err != nil {
		return fmt.Errorf("failed to create plant: %w", err)
	}
	if err := r.e.kv.Set(ctx, r.e.plantKey(plant.PlantID), plant.PlotID, 0); err != nil {
		return fmt.Errorf("failed to index plant: %w", err)
	}
	return nil
}

func (r *KVPlantRepository) UpdatePlant(ctx context.Context, plant *models.Plant) error {
	if plant == nil || plant.PlantID == "" {
		return fmt.Errorf("plant_id is required")
	}
	r.e.mu.Lock()
	defer r.e.mu.Unlock()

	plants, err := r.FindPlantsByPlotID(ctx, plant.PlotID)
	if err != nil {
		return err
	}
	for i := range plants {
		if plants[i].PlantID != plant.PlantID {
			continue
		}
		plant.CreatedAt = plants[i].CreatedAt
		plant.UpdatedAt = time.Now()
		plants[i] = *plant
		if err := r.e.setJSON(ctx, r.e.plantsKey(plant.PlotID), plants); err != nil {
			return fmt.Errorf("failed to update plant: %w", err)
		}
		return nil
	}
	return fmt.Errorf("plant %s: %w", plant.PlantID, ErrNotFound)
}

func (r *KVPlantRepository) CreateTreatment(ctx context.Context, record *models.TreatmentRecord) error {
	if record == nil {
		return fmt.Errorf("treatment record is required")
	}
	r.e.mu.Lock()
	defer r.e.mu.Unlock()

	if record.TreatmentID == "" {
		record.TreatmentID = uuid.NewString()
	}
	var records []models.TreatmentRecord
	if err := r.e.getList(ctx, r.e.treatmentsKey(record.PlantID), &records); err != nil {
		return fmt.Errorf("failed to get treatments: %w", err)
	}
	records = append(records, *record)
	if err := r.e.setJSON(ctx, r.e.treatmentsKey(record.PlantID), records); err != nil {
		return fmt.Errorf("failed to create treatment: %w", err)
	}
	return nil
}
