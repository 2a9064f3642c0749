package footprint

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/pkg/core"
)

// RectShape is the w×h pixel rectangle anchored at the local origin.
func RectShape(w, h float64) geom.Polygon {
	return grid.RingPolygon([]core.Point{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: w, Y: h},
		{X: 0, Y: h},
	})
}

// HexShape is a hexagon inscribed in the w×h pixel box.
// Columnar grids use flat-top hexagons, row grids pointy-top ones.
// Corners sit on exact box fractions so mirrored cells sample alike.
func HexShape(w, h float64, columnar bool) geom.Polygon {
	if columnar {
		return grid.RingPolygon([]core.Point{
			{X: w / 4, Y: 0},
			{X: 3 * w / 4, Y: 0},
			{X: w, Y: h / 2},
			{X: 3 * w / 4, Y: h},
			{X: w / 4, Y: h},
			{X: 0, Y: h / 2},
		})
	}
	return grid.RingPolygon([]core.Point{
		{X: w / 2, Y: 0},
		{X: w, Y: h / 4},
		{X: w, Y: 3 * h / 4},
		{X: w / 2, Y: h},
		{X: 0, Y: 3 * h / 4},
		{X: 0, Y: h / 4},
	})
}

// PolygonShape builds a local-space shape from its outline points.
func PolygonShape(pts []core.Point) geom.Polygon {
	return grid.RingPolygon(pts)
}
