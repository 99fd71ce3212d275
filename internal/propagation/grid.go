package propagation

import "github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

const emptyCell = -1

// Grid 地块网格（按行优先展开，单元格存放植物下标，空格为 -1）
type Grid struct {
	rows    int
	columns int
	cells   []int
	plants  []models.Plant
	orphans []models.Plant
}

// BuildGrid 按地块尺寸构建网格
// 未定位的植物不进网格；坐标越界的植物不进网格并记入 Orphans。
// 同一格子出现多株植物时保留先出现者，后者视为越界数据处理。
// 尺寸非法或超过 models.MaxPlotCells 时网格为空，所有已定位植物记入 Orphans。
func BuildGrid(rows, columns int, plants []models.Plant) *Grid {
	if !models.ValidDimensions(rows, columns) {
		rows, columns = 0, 0
	}
	g := &Grid{
		rows:    rows,
		columns: columns,
		cells:   make([]int, rows*columns),
		plants:  plants,
	}
	for i := range g.cells {
		g.cells[i] = emptyCell
	}

	for i, p := range plants {
		if p.Position == nil {
			continue
		}
		row, col := p.Position.Row, p.Position.Column
		if !g.InBounds(row, col) {
			g.orphans = append(g.orphans, p)
			continue
		}
		idx := g.index(row, col)
		if g.cells[idx] != emptyCell {
			g.orphans = append(g.orphans, p)
			continue
		}
		g.cells[idx] = i
	}
	return g
}

func (g *Grid) index(row, col int) int { return row*g.columns + col }

func (g *Grid) Rows() int    { return g.rows }
func (g *Grid) Columns() int { return g.columns }

// InBounds 坐标是否在网格范围内
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.columns
}

// At 返回格子上的植物；空格或越界返回 nil
func (g *Grid) At(row, col int) *models.Plant {
	if !g.InBounds(row, col) {
		return nil
	}
	idx := g.cells[g.index(row, col)]
	if idx == emptyCell {
		return nil
	}
	return &g.plants[idx]
}

// Holds 格子上是否正是该植物
func (g *Grid) Holds(row, col int, plantID string) bool {
	p := g.At(row, col)
	return p != nil && p.PlantID == plantID
}

// Orphans 有坐标但未能放入网格的植物
func (g *Grid) Orphans() []models.Plant {
	return g.orphans
}
