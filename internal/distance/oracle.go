// Package distance answers grid-aware distance queries between pieces.
package distance

import (
	"math"

	"github.com/tacgrid/reactions/internal/footprint"
	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/pkg/core"
)

// Oracle computes minimum cell distances between piece footprints.
type Oracle struct {
	metrics grid.Metrics
	sampler *footprint.Sampler
}

// NewOracle creates an oracle over the given grid.
func NewOracle(metrics grid.Metrics) *Oracle {
	return &Oracle{metrics: metrics, sampler: footprint.NewSampler(metrics)}
}

// Sampler exposes the footprint sampler shared by the oracle.
func (o *Oracle) Sampler() *footprint.Sampler {
	return o.sampler
}

// MinDistance returns the smallest distance in cells between any cell of a and any cell of b.
// With overrideA set, a is evaluated at that position.
func (o *Oracle) MinDistance(a, b core.Piece, overrideA *core.Point) int {
	return o.between(o.sampler.OccupiedCells(a, overrideA), o.sampler.OccupiedCells(b, nil))
}

// DistanceToPoint returns the distance in cells from a's footprint to p,
// treating p as a single-cell piece centred on it.
func (o *Oracle) DistanceToPoint(a core.Piece, p core.Point) int {
	cw, ch := o.metrics.CellSize()
	marker := core.Piece{Width: 1, Height: 1, Position: core.Point{X: p.X - cw/2, Y: p.Y - ch/2}}
	return o.MinDistance(a, marker, nil)
}

func (o *Oracle) between(as, bs []grid.OffsetCoord) int {
	topo := o.metrics.Topology()
	if topo.IsHex() {
		best := math.MaxInt
		for _, ca := range as {
			ha := grid.OffsetToCube(topo, ca)
			for _, cb := range bs {
				if d := grid.CubeDistance(ha, grid.OffsetToCube(topo, cb)); d < best {
					best = d
				}
			}
		}
		return best
	}

	best := math.Inf(1)
	for _, ca := range as {
		pa := o.metrics.OffsetToPixelCenter(ca)
		for _, cb := range bs {
			if d := o.metrics.Measure(pa, o.metrics.OffsetToPixelCenter(cb)); d < best {
				best = d
			}
		}
	}
	per := o.metrics.DistancePerCell()
	if per <= 0 {
		per = 1
	}
	return int(math.Round(best / per))
}
