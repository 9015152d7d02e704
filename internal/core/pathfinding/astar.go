package pathfinding

import (
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/physics"
	"github.com/zeusync/robonav/pkg/sequence"
)

// neighborOffsets is the fixed expansion order: up, down, left, right.
var neighborOffsets = [4][2]int{
	{0, -1},
	{0, 1},
	{-1, 0},
	{1, 0},
}

type searchNode struct {
	x, y   int
	g, h   int
	parent *searchNode
}

func (n *searchNode) f() int { return n.g + n.h }

// frontierLess orders by estimated total cost, then prefers the node closer
// to the goal. Remaining ties fall back to insertion order in the queue.
func frontierLess(a, b *searchNode) bool {
	if a.f() != b.f() {
		return a.f() < b.f()
	}
	return a.h < b.h
}

// AStar finds 4-connected routes with a Manhattan heuristic. It keeps no
// state between searches and is safe for concurrent use as long as the
// underlying Map is.
type AStar struct {
	m Map
}

func NewAStar(m Map) *AStar { return &AStar{m: m} }

// NewFieldPathFinder is a convenience for searching an obstacle field.
func NewFieldPathFinder(grid level.Grid) *AStar { return NewAStar(NewFieldMap(grid)) }

// FindPath returns the cells from `from` to `to`, both included. Coordinates
// are floored onto their tiles first. An unreachable goal, or a start or goal
// cell that is not traversable, yields an empty path. from == to on a free
// cell yields a single-cell path.
func (a *AStar) FindPath(from, to physics.Vector2) []physics.Vector2 {
	sx, sy := from.Floor().Cell()
	gx, gy := to.Floor().Cell()

	if !a.m.IsTraversable(sx, sy) || !a.m.IsTraversable(gx, gy) {
		return []physics.Vector2{}
	}

	w, h := a.m.Width(), a.m.Height()
	index := func(x, y int) int { return y*w + x }
	closed := make([]bool, w*h)
	best := make(map[int]int, 64)

	open := sequence.NewPriorityQueue(frontierLess)
	open.Enqueue(&searchNode{x: sx, y: sy, h: manhattan(sx, sy, gx, gy)})
	best[index(sx, sy)] = 0

	for !open.IsEmpty() {
		current, _ := open.Dequeue()
		ci := index(current.x, current.y)
		if closed[ci] {
			continue
		}
		closed[ci] = true

		if current.x == gx && current.y == gy {
			return reconstruct(current)
		}

		for _, d := range neighborOffsets {
			nx, ny := current.x+d[0], current.y+d[1]
			if !a.m.IsTraversable(nx, ny) {
				continue
			}
			ni := index(nx, ny)
			if closed[ni] {
				continue
			}
			g := current.g + 1
			if prev, ok := best[ni]; ok && g >= prev {
				continue
			}
			best[ni] = g
			open.Enqueue(&searchNode{
				x:      nx,
				y:      ny,
				g:      g,
				h:      manhattan(nx, ny, gx, gy),
				parent: current,
			})
		}
	}

	return []physics.Vector2{}
}

func reconstruct(end *searchNode) []physics.Vector2 {
	n := 0
	for node := end; node != nil; node = node.parent {
		n++
	}
	path := make([]physics.Vector2, n)
	for node := end; node != nil; node = node.parent {
		n--
		path[n] = physics.Vec2(float64(node.x), float64(node.y))
	}
	return path
}

func manhattan(x1, y1, x2, y2 int) int {
	return abs(x1-x2) + abs(y1-y2)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
