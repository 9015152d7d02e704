// Package pathfinding searches routes through the obstacle grid.
package pathfinding

import "github.com/zeusync/robonav/internal/core/level"

// Map is the graph the search runs on: a grid of cells that are either
// traversable or not.
type Map interface {
	Width() int
	Height() int
	IsTraversable(x, y int) bool
}

// FieldMap adapts an obstacle field to Map. Cells outside the field are
// never traversable, so the search cannot leave the grid.
type FieldMap struct {
	grid level.Grid
}

func NewFieldMap(grid level.Grid) FieldMap { return FieldMap{grid: grid} }

func (m FieldMap) Width() int  { return m.grid.Width() }
func (m FieldMap) Height() int { return m.grid.Height() }

func (m FieldMap) IsTraversable(x, y int) bool {
	return m.grid.InBounds(x, y) && !m.grid.HasObstacle(x, y)
}
