// Package footprint determines which grid cells a piece occupies.
package footprint

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/pkg/core"
)

// boundaryTolerance, relative to the cell size, absorbs float error in cell
// centres that fall exactly on a shape edge. Boundary points count as inside.
const boundaryTolerance = 1e-9

// Sampler computes piece footprints against a grid.
type Sampler struct {
	metrics grid.Metrics
}

// NewSampler creates a sampler bound to the scene grid.
func NewSampler(metrics grid.Metrics) *Sampler {
	return &Sampler{metrics: metrics}
}

// Metrics returns the grid the sampler works on.
func (s *Sampler) Metrics() grid.Metrics {
	return s.metrics
}

// Center returns the pixel centre of the piece at its position, or at override when set.
func (s *Sampler) Center(p core.Piece, override *core.Point) core.Point {
	pos := p.Position
	if override != nil {
		pos = *override
	}
	w, h := s.pixelSize(p)
	return core.Point{X: pos.X + w/2, Y: pos.Y + h/2}
}

// OccupiedCells returns the cells covered by the piece. The result is never empty.
// With override set, the piece is evaluated at that top-left position instead of its own.
func (s *Sampler) OccupiedCells(p core.Piece, override *core.Point) []grid.OffsetCoord {
	pos := p.Position
	if override != nil {
		pos = *override
	}
	centerCell := s.metrics.PixelToOffset(s.Center(p, override))

	if p.Width <= 1 && p.Height <= 1 {
		return []grid.OffsetCoord{centerCell}
	}

	shape := p.Shape
	if shape.IsEmpty() {
		w, h := s.pixelSize(p)
		shape = RectShape(w, h)
	}
	shapeGeom := shape.AsGeometry()
	cw, ch := s.metrics.CellSize()
	tol := boundaryTolerance * math.Max(cw, ch)

	n := int(math.Ceil(math.Max(p.Width, p.Height)))
	cells := make([]grid.OffsetCoord, 0, (2*n+1)*(2*n+1))
	for row := centerCell.Row - n; row <= centerCell.Row+n; row++ {
		for col := centerCell.Col - n; col <= centerCell.Col+n; col++ {
			c := grid.OffsetCoord{Col: col, Row: row}
			local := s.metrics.OffsetToPixelCenter(c).Sub(pos)
			if covers(shapeGeom, local, tol) {
				cells = append(cells, c)
			}
		}
	}

	if len(cells) == 0 {
		return []grid.OffsetCoord{centerCell}
	}
	return cells
}

func covers(shape geom.Geometry, p core.Point, tol float64) bool {
	pt := p.XY().AsPoint().AsGeometry()
	if geom.Intersects(shape, pt) {
		return true
	}
	d, ok := geom.Distance(shape, pt)
	return ok && d <= tol
}

func (s *Sampler) pixelSize(p core.Piece) (w, h float64) {
	cw, ch := s.metrics.CellSize()
	return math.Max(p.Width, 0) * cw, math.Max(p.Height, 0) * ch
}
