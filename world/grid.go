// Package world describes the rectangular planar world the vehicle moves in: its bounds and the
// square obstacle cells read from a character map.
package world

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// BlockedCell is the map character marking an obstacle cell.
const BlockedCell = '#'

// Cell addresses one square of the obstacle grid. I counts columns from the left, J counts rows
// from the bottom.
type Cell struct {
	I, J int
}

// Grid is an immutable obstacle map. Cell (i, j) covers [i*s, i*s+s] x [j*s, j*s+s] where s is the
// scale factor, and touching a blocked cell's border counts as a collision. The world bounds are
// exclusive: a point on or outside the boundary collides.
type Grid struct {
	width, height int
	scale         int
	cols, rows    int
	blocked       map[Cell]bool
	bounds        r2.Rect
}

// NewGrid builds a grid from the world dimensions and the map rows, top row first. The scale
// factor is width divided by the length of the first row, and height/scale rows are read.
func NewGrid(width, height int, mapRows []string) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("world dimensions must be positive, got %dx%d", width, height)
	}
	if len(mapRows) == 0 || len(mapRows[0]) == 0 {
		return nil, errors.New("map has no rows")
	}
	cols := len(mapRows[0])
	scale := width / cols
	if scale == 0 {
		return nil, errors.Errorf("map row of length %d is wider than world width %d", cols, width)
	}
	rows := height / scale
	if rows == 0 {
		return nil, errors.Errorf("world height %d is smaller than one map cell of size %d", height, scale)
	}
	if len(mapRows) < rows {
		return nil, errors.Errorf("map needs %d rows for height %d, got %d", rows, height, len(mapRows))
	}

	g := &Grid{
		width:   width,
		height:  height,
		scale:   scale,
		cols:    cols,
		rows:    rows,
		blocked: map[Cell]bool{},
		bounds:  r2.RectFromPoints(r2.Point{}, r2.Point{X: float64(width), Y: float64(height)}),
	}
	for r := 0; r < rows; r++ {
		line := mapRows[r]
		if len(line) != cols {
			return nil, errors.Errorf("map row %d has length %d, expected %d", r, len(line), cols)
		}
		j := rows - 1 - r
		for i := 0; i < cols; i++ {
			if line[i] == BlockedCell {
				g.blocked[Cell{I: i, J: j}] = true
			}
		}
	}
	return g, nil
}

// Width returns the world width.
func (g *Grid) Width() int { return g.width }

// Height returns the world height.
func (g *Grid) Height() int { return g.height }

// Scale returns the side length of one map cell.
func (g *Grid) Scale() int { return g.scale }

// Bounds returns the world rectangle.
func (g *Grid) Bounds() r2.Rect { return g.bounds }

// Blocked reports whether the given cell is an obstacle.
func (g *Grid) Blocked(c Cell) bool { return g.blocked[c] }

// BlockedCells returns every obstacle cell, row by row from the bottom.
func (g *Grid) BlockedCells() []Cell {
	cells := make([]Cell, 0, len(g.blocked))
	for j := 0; j < g.rows; j++ {
		for i := 0; i < g.cols; i++ {
			if g.blocked[Cell{I: i, J: j}] {
				cells = append(cells, Cell{I: i, J: j})
			}
		}
	}
	return cells
}

// CellRect returns the closed square covered by a cell.
func (g *Grid) CellRect(c Cell) r2.Rect {
	s := float64(g.scale)
	lo := r2.Point{X: float64(c.I) * s, Y: float64(c.J) * s}
	return r2.RectFromPoints(lo, lo.Add(r2.Point{X: s, Y: s}))
}

// Collides reports whether a point lies outside the open world rectangle or inside (or on the
// border of) a blocked cell.
func (g *Grid) Collides(p r2.Point) bool {
	if !g.bounds.InteriorContainsPoint(p) {
		return true
	}
	s := float64(g.scale)
	ci := int(math.Floor(p.X / s))
	cj := int(math.Floor(p.Y / s))
	// A point on a cell edge also touches the neighbor below or to the left.
	for i := ci - 1; i <= ci; i++ {
		for j := cj - 1; j <= cj; j++ {
			c := Cell{I: i, J: j}
			if g.blocked[c] && g.CellRect(c).ContainsPoint(p) {
				return true
			}
		}
	}
	return false
}

// CellOf returns the cell containing p. Points on a shared edge belong to the cell above or to the
// right.
func (g *Grid) CellOf(p r2.Point) Cell {
	s := float64(g.scale)
	return Cell{I: int(math.Floor(p.X / s)), J: int(math.Floor(p.Y / s))}
}

// InGrid reports whether c is one of the cells of the map.
func (g *Grid) InGrid(c Cell) bool {
	return c.I >= 0 && c.I < g.cols && c.J >= 0 && c.J < g.rows
}

// ConnectedCells returns every open cell reachable from start by moving between edge-adjacent
// open cells. It is empty if start is blocked or off the map.
func (g *Grid) ConnectedCells(start Cell) map[Cell]bool {
	reached := map[Cell]bool{}
	if !g.InGrid(start) || g.blocked[start] {
		return reached
	}
	reached[start] = true
	queue := []Cell{start}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, n := range []Cell{{I: c.I + 1, J: c.J}, {I: c.I - 1, J: c.J}, {I: c.I, J: c.J + 1}, {I: c.I, J: c.J - 1}} {
			if g.InGrid(n) && !g.blocked[n] && !reached[n] {
				reached[n] = true
				queue = append(queue, n)
			}
		}
	}
	return reached
}
