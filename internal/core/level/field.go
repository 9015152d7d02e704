// Package level models the obstacle field the robot navigates and the
// procedural generator that fills it.
package level

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrOutOfBounds is carried by the panic raised on out-of-range cell access.
var ErrOutOfBounds = errors.New("cell out of bounds")

// Grid is the read-only view of an obstacle field. Renderers and the
// pathfinder only ever receive a Grid.
type Grid interface {
	Width() int
	Height() int
	InBounds(x, y int) bool
	HasObstacle(x, y int) bool
}

var _ Grid = (*Field)(nil)

// Field is a fixed width x height grid of blocked cells, origin at (0, 0),
// stored row-major.
type Field struct {
	width     int
	height    int
	obstacles []bool
}

// NewField creates an empty field. Non-positive dimensions panic.
func NewField(width, height int) *Field {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("level: invalid field size %dx%d", width, height))
	}
	return &Field{
		width:     width,
		height:    height,
		obstacles: make([]bool, width*height),
	}
}

func (f *Field) Width() int  { return f.width }
func (f *Field) Height() int { return f.height }

// InBounds reports whether (x, y) addresses a cell of the field.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && x < f.width && y >= 0 && y < f.height
}

// HasObstacle reports whether the cell is blocked. Panics when out of bounds.
func (f *Field) HasObstacle(x, y int) bool {
	return f.obstacles[f.index(x, y)]
}

// AddObstacle blocks the cell. Panics when out of bounds.
func (f *Field) AddObstacle(x, y int) {
	f.obstacles[f.index(x, y)] = true
}

// RemoveObstacle frees the cell. Panics when out of bounds.
func (f *Field) RemoveObstacle(x, y int) {
	f.obstacles[f.index(x, y)] = false
}

// Obstacles counts blocked cells.
func (f *Field) Obstacles() int {
	n := 0
	for _, blocked := range f.obstacles {
		if blocked {
			n++
		}
	}
	return n
}

// Fingerprint digests the dimensions and the cell layout. Two fields with the
// same fingerprint are, for all practical purposes, identical.
func (f *Field) Fingerprint() uint64 {
	d := xxhash.New()
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[:8], uint64(f.width))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(f.height))
	_, _ = d.Write(hdr[:])

	row := make([]byte, f.width)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			row[x] = 0
			if f.obstacles[y*f.width+x] {
				row[x] = 1
			}
		}
		_, _ = d.Write(row)
	}
	return d.Sum64()
}

// FormatFingerprint renders a fingerprint the way scenario files and the
// session protocol carry it.
func FormatFingerprint(fp uint64) string { return fmt.Sprintf("%016x", fp) }

// Rows renders the field one string per row, '#' for obstacles and '.' for
// free cells.
func (f *Field) Rows() []string {
	rows := make([]string, f.height)
	var b strings.Builder
	for y := 0; y < f.height; y++ {
		b.Reset()
		for x := 0; x < f.width; x++ {
			if f.obstacles[y*f.width+x] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// GridRows renders any grid in the Rows format.
func GridRows(g Grid) []string {
	if f, ok := g.(*Field); ok {
		return f.Rows()
	}
	rows := make([]string, g.Height())
	line := make([]byte, g.Width())
	for y := range rows {
		for x := range line {
			line[x] = '.'
			if g.HasObstacle(x, y) {
				line[x] = '#'
			}
		}
		rows[y] = string(line)
	}
	return rows
}

func (f *Field) String() string { return strings.Join(f.Rows(), "\n") }

// FieldFromRows parses the Rows format back into a field. Any byte other than
// '#' is a free cell. All rows must have the same length.
func FieldFromRows(rows ...string) (*Field, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("level: empty layout")
	}
	f := NewField(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != f.width {
			return nil, fmt.Errorf("level: row %d has %d cells, want %d", y, len(row), f.width)
		}
		for x := 0; x < len(row); x++ {
			if row[x] == '#' {
				f.AddObstacle(x, y)
			}
		}
	}
	return f, nil
}

func (f *Field) index(x, y int) int {
	if !f.InBounds(x, y) {
		panic(fmt.Errorf("level: (%d, %d) in %dx%d field: %w", x, y, f.width, f.height, ErrOutOfBounds))
	}
	return y*f.width + x
}
