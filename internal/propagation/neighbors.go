package propagation

// Cell 网格坐标
type Cell struct {
	Row    int
	Column int
}

// Moore 邻域偏移：N, NE, E, SE, S, SW, W, NW
var mooreOffsets = [8]Cell{
	{Row: -1, Column: 0},
	{Row: -1, Column: 1},
	{Row: 0, Column: 1},
	{Row: 1, Column: 1},
	{Row: 1, Column: 0},
	{Row: 1, Column: -1},
	{Row: 0, Column: -1},
	{Row: -1, Column: -1},
}

// Neighbors 返回格子在网格范围内的邻居（不环绕，角 3 个、边 5 个、内部 8 个）
func Neighbors(g *Grid, row, col int) []Cell {
	out := make([]Cell, 0, len(mooreOffsets))
	for _, d := range mooreOffsets {
		r, c := row+d.Row, col+d.Column
		if g.InBounds(r, c) {
			out = append(out, Cell{Row: r, Column: c})
		}
	}
	return out
}
