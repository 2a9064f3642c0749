package threat

import (
	"context"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/tacgrid/reactions/internal/distance"
	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/pkg/core"
)

// Zone is an exact threat area in scene pixels.
type Zone interface {
	Contains(p core.Point) bool
}

// ZoneProvider reports the precise threat zone of a reactor, when it has one.
// A reported zone overrides the distance approximation.
type ZoneProvider interface {
	ZoneFor(ctx context.Context, reactor core.Piece) (Zone, bool)
}

// CellZones builds threat zones as the union of the cells within threat range.
type CellZones struct {
	oracle *distance.Oracle
}

var _ ZoneProvider = (*CellZones)(nil)

// NewCellZones creates a zone provider over the oracle's grid.
func NewCellZones(oracle *distance.Oracle) *CellZones {
	return &CellZones{oracle: oracle}
}

// ZoneFor returns the cells within MaxThreat of the reactor's footprint.
// Pieces without an actor have no zone.
func (z *CellZones) ZoneFor(ctx context.Context, reactor core.Piece) (Zone, bool) {
	if reactor.Actor == nil {
		return nil, false
	}
	reach := MaxThreat(reactor.Actor)
	metrics := z.oracle.Sampler().Metrics()
	footprint := z.oracle.Sampler().OccupiedCells(reactor, nil)

	seen := make(map[grid.OffsetCoord]bool)
	var polys []geom.Polygon
	for _, fc := range footprint {
		// offset windows of reach+1 cover every cell within reach on all topologies
		for row := fc.Row - reach - 1; row <= fc.Row+reach+1; row++ {
			for col := fc.Col - reach - 1; col <= fc.Col+reach+1; col++ {
				c := grid.OffsetCoord{Col: col, Row: row}
				if seen[c] {
					continue
				}
				seen[c] = true
				if z.oracle.DistanceToPoint(reactor, metrics.OffsetToPixelCenter(c)) <= reach {
					polys = append(polys, metrics.CellPolygon(c))
				}
			}
		}
	}
	return cellZone{shape: geom.NewMultiPolygon(polys).AsGeometry()}, true
}

type cellZone struct {
	shape geom.Geometry
}

func (z cellZone) Contains(p core.Point) bool {
	return geom.Intersects(z.shape, p.XY().AsPoint().AsGeometry())
}
