package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PlantStatus 植物健康状态
type PlantStatus string

const (
	StatusHealthy          PlantStatus = "Healthy"
	StatusUnderObservation PlantStatus = "UnderObservation"
	StatusDiseased         PlantStatus = "Diseased"
	StatusRecovering       PlantStatus = "Recovering"
	StatusDead             PlantStatus = "Dead"
)

// ErrInvalidHealth 状态与病害引用组合非法
var ErrInvalidHealth = errors.New("invalid plant health")

// Valid 是否为已知状态
func (s PlantStatus) Valid() bool {
	switch s {
	case StatusHealthy, StatusUnderObservation, StatusDiseased, StatusRecovering, StatusDead:
		return true
	}
	return false
}

// carriesDisease 只有 Diseased / Recovering 允许携带病害
func (s PlantStatus) carriesDisease() bool {
	return s == StatusDiseased || s == StatusRecovering
}

// DiseaseRef 病害引用
type DiseaseRef struct {
	DiseaseID   string `json:"disease_id"`
	DiseaseName string `json:"disease_name"`
}

// Health 植物健康状态（状态 + 可选病害）
// 字段不导出：只能通过下面的构造函数或 NewHealth 创建，
// 因此 "有病害但状态不是 Diseased/Recovering" 无法表达。
// 零值视为 Healthy。
type Health struct {
	status  PlantStatus
	disease *DiseaseRef
}

func HealthyState() Health          { return Health{status: StatusHealthy} }
func UnderObservationState() Health { return Health{status: StatusUnderObservation} }
func DeadState() Health             { return Health{status: StatusDead} }

// DiseasedState 确诊状态
func DiseasedState(ref DiseaseRef) Health {
	return Health{status: StatusDiseased, disease: &ref}
}

// RecoveringState 康复中状态（保留原病害）
func RecoveringState(ref DiseaseRef) Health {
	return Health{status: StatusRecovering, disease: &ref}
}

// NewHealth 从持久化数据还原健康状态
// disease 为 nil 时 Diseased/Recovering 也合法（历史数据可能缺少病害引用）
func NewHealth(status PlantStatus, disease *DiseaseRef) (Health, error) {
	if !status.Valid() {
		return Health{}, fmt.Errorf("%w: unknown status %q", ErrInvalidHealth, status)
	}
	if disease != nil && !status.carriesDisease() {
		return Health{}, fmt.Errorf("%w: status %s cannot carry disease %s", ErrInvalidHealth, status, disease.DiseaseID)
	}
	h := Health{status: status}
	if disease != nil {
		ref := *disease
		h.disease = &ref
	}
	return h, nil
}

// Status 当前状态
func (h Health) Status() PlantStatus {
	if h.status == "" {
		return StatusHealthy
	}
	return h.status
}

// Disease 病害引用（没有病害或病害 ID 为空时 ok=false）
func (h Health) Disease() (DiseaseRef, bool) {
	if h.disease == nil || h.disease.DiseaseID == "" {
		return DiseaseRef{}, false
	}
	return *h.disease, true
}

type healthJSON struct {
	Status  PlantStatus `json:"status"`
	Disease *DiseaseRef `json:"disease,omitempty"`
}

func (h Health) MarshalJSON() ([]byte, error) {
	return json.Marshal(healthJSON{Status: h.Status(), Disease: h.disease})
}

func (h *Health) UnmarshalJSON(data []byte) error {
	var raw healthJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Status == "" {
		raw.Status = StatusHealthy
	}
	parsed, err := NewHealth(raw.Status, raw.Disease)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
