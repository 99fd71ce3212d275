package models

import "time"

// Plot 地块（rows × columns 的网格）
type Plot struct {
	PlotID    string    `json:"plot_id" db:"plot_id"`
	FarmID    string    `json:"farm_id" db:"farm_id"`
	Name      string    `json:"plot_name" db:"plot_name"`
	Rows      int       `json:"rows" db:"grid_rows"`
	Columns   int       `json:"columns" db:"grid_columns"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MaxPlotCells 单个地块允许的最大格子数（rows × columns）
const MaxPlotCells = 10000

// ValidDimensions 尺寸为正且格子数不超过 MaxPlotCells（不做乘法，避免溢出）
func ValidDimensions(rows, columns int) bool {
	return rows > 0 && columns > 0 && rows <= MaxPlotCells/columns
}

// Contains 判断坐标是否落在地块当前范围内
func (p Plot) Contains(pos Position) bool {
	return pos.Row >= 0 && pos.Row < p.Rows && pos.Column >= 0 && pos.Column < p.Columns
}

// Position 网格坐标
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}
