package footprint

import (
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/pkg/core"
)

func newSampler(t *testing.T, topo grid.Topology) *Sampler {
	t.Helper()
	l, err := grid.NewLayout(grid.Config{Topology: topo, Size: 100, Distance: 1})
	require.NoError(t, err)
	return NewSampler(l)
}

// placeOn returns the top-left position that centres a w×h piece on cell c.
func placeOn(s *Sampler, c grid.OffsetCoord, w, h float64) core.Point {
	cw, ch := s.Metrics().CellSize()
	center := s.Metrics().OffsetToPixelCenter(c)
	return core.Point{X: center.X - w*cw/2, Y: center.Y - h*ch/2}
}

func TestOccupiedCells_SingleCell(t *testing.T) {
	s := newSampler(t, grid.Square)
	p := core.Piece{ID: "a", Position: core.Point{X: 100, Y: 200}, Width: 1, Height: 1}

	assert.Equal(t, []grid.OffsetCoord{{Col: 1, Row: 2}}, s.OccupiedCells(p, nil))
}

func TestOccupiedCells_LargeSquarePiece(t *testing.T) {
	s := newSampler(t, grid.Square)
	p := core.Piece{ID: "big", Position: core.Point{X: 0, Y: 0}, Width: 2, Height: 2}

	assert.ElementsMatch(t, []grid.OffsetCoord{
		{Col: 0, Row: 0}, {Col: 1, Row: 0},
		{Col: 0, Row: 1}, {Col: 1, Row: 1},
	}, s.OccupiedCells(p, nil))
}

func TestOccupiedCells_PositionOverride(t *testing.T) {
	s := newSampler(t, grid.Square)
	p := core.Piece{ID: "big", Position: core.Point{X: 0, Y: 0}, Width: 2, Height: 1}
	override := core.Point{X: 200, Y: 100}

	cells := s.OccupiedCells(p, &override)
	assert.ElementsMatch(t, []grid.OffsetCoord{{Col: 2, Row: 1}, {Col: 3, Row: 1}}, cells)
	assert.Equal(t, core.Point{X: 0, Y: 0}, p.Position, "override must not move the piece")
}

func TestOccupiedCells_CustomShape(t *testing.T) {
	s := newSampler(t, grid.Square)
	// L-shaped 2x2 piece missing its bottom-right cell.
	shape := PolygonShape([]core.Point{
		{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100},
		{X: 100, Y: 100}, {X: 100, Y: 200}, {X: 0, Y: 200},
	})
	p := core.Piece{ID: "l", Width: 2, Height: 2, Shape: shape}

	assert.ElementsMatch(t, []grid.OffsetCoord{
		{Col: 0, Row: 0}, {Col: 1, Row: 0}, {Col: 0, Row: 1},
	}, s.OccupiedCells(p, nil))
}

func TestOccupiedCells_RejectingShapeFallsBackToCenter(t *testing.T) {
	s := newSampler(t, grid.Square)
	shape := PolygonShape([]core.Point{{X: -500, Y: -500}, {X: -499, Y: -500}, {X: -500, Y: -499}})
	p := core.Piece{ID: "broken", Width: 3, Height: 3, Shape: shape}

	assert.Equal(t, []grid.OffsetCoord{{Col: 1, Row: 1}}, s.OccupiedCells(p, nil))
}

func TestOccupiedCells_NeverEmpty(t *testing.T) {
	topologies := []grid.Topology{grid.Square, grid.HexOddRow, grid.HexEvenRow, grid.HexOddCol, grid.HexEvenCol}
	sizes := []float64{0, 0.5, 1, 2, 3, 4}

	for _, topo := range topologies {
		s := newSampler(t, topo)
		for _, size := range sizes {
			target := grid.OffsetCoord{Col: 3, Row: 2}
			p := core.Piece{ID: "p", Width: size, Height: size, Position: placeOn(s, target, size, size)}
			cells := s.OccupiedCells(p, nil)
			require.NotEmpty(t, cells, "%s size %v", topo, size)
			assert.Contains(t, cells, target, "%s size %v", topo, size)
		}
	}
}

func TestOccupiedCells_HexShapedPiece(t *testing.T) {
	s := newSampler(t, grid.HexOddCol)
	cw, ch := s.Metrics().CellSize()
	target := grid.OffsetCoord{Col: 4, Row: 4}
	p := core.Piece{
		ID:       "hex",
		Width:    1,
		Height:   1,
		Position: placeOn(s, target, 1, 1),
		Shape:    HexShape(cw, ch, true),
	}
	assert.Equal(t, []grid.OffsetCoord{target}, s.OccupiedCells(p, nil))
}

func TestCenter(t *testing.T) {
	s := newSampler(t, grid.Square)
	p := core.Piece{Position: core.Point{X: 10, Y: 20}, Width: 2, Height: 1}

	assert.Equal(t, core.Point{X: 110, Y: 70}, s.Center(p, nil))
	assert.Equal(t, core.Point{X: 100, Y: 50}, s.Center(p, &core.Point{}))
}

func TestHexShape_InscribedInBox(t *testing.T) {
	poly := HexShape(100, 80, false).AsGeometry()
	touches := func(x, y float64) bool {
		return geom.Intersects(poly, geom.XY{X: x, Y: y}.AsPoint().AsGeometry())
	}

	assert.True(t, touches(50, 0))
	assert.True(t, touches(50, 80))
	assert.True(t, touches(100, 40))
	assert.True(t, touches(0, 40))
	assert.False(t, touches(101, 40))
	assert.False(t, touches(50, 81))
}

func TestOccupiedCells_HexShapeCoversRingSymmetrically(t *testing.T) {
	target := grid.OffsetCoord{Col: 4, Row: 4}
	for _, topo := range []grid.Topology{grid.HexOddRow, grid.HexEvenRow, grid.HexOddCol, grid.HexEvenCol} {
		s := newSampler(t, topo)
		cw, ch := s.Metrics().CellSize()
		p := core.Piece{
			ID:       "hex",
			Width:    2,
			Height:   2,
			Position: placeOn(s, target, 2, 2),
			Shape:    HexShape(2*cw, 2*ch, topo.IsColumnar()),
		}

		// every neighbour centre lies on the outline, so all six count
		var want []grid.OffsetCoord
		center := grid.OffsetToCube(topo, target)
		for row := target.Row - 2; row <= target.Row+2; row++ {
			for col := target.Col - 2; col <= target.Col+2; col++ {
				c := grid.OffsetCoord{Col: col, Row: row}
				if grid.CubeDistance(center, grid.OffsetToCube(topo, c)) <= 1 {
					want = append(want, c)
				}
			}
		}
		require.Len(t, want, 7)
		assert.ElementsMatch(t, want, s.OccupiedCells(p, nil), "%s", topo)
	}
}

func TestHexShape_FlatTopInscribedInBox(t *testing.T) {
	poly := HexShape(100, 80, true).AsGeometry()
	touches := func(x, y float64) bool {
		return geom.Intersects(poly, geom.XY{X: x, Y: y}.AsPoint().AsGeometry())
	}

	assert.True(t, touches(0, 40))
	assert.True(t, touches(100, 40))
	assert.True(t, touches(50, 0))
	assert.True(t, touches(25, 80))
	assert.False(t, touches(1, 1))
}
