package grid

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/tacgrid/reactions/pkg/core"
)

// Metrics is the grid metrics provider the geometry core depends on.
type Metrics interface {
	Topology() Topology
	// CellSize is the pixel bounding box of a single cell.
	CellSize() (w, h float64)
	PixelToOffset(p core.Point) OffsetCoord
	OffsetToPixelCenter(c OffsetCoord) core.Point
	CellPolygon(c OffsetCoord) geom.Polygon
	// Measure returns the distance between two points in scene units.
	Measure(a, b core.Point) float64
	// DistancePerCell is the number of scene units one cell step is worth.
	DistancePerCell() float64
}

// Diagonals selects how square grids measure diagonal movement.
type Diagonals string

const (
	// DiagonalsEquidistant counts a diagonal step as one cell.
	DiagonalsEquidistant Diagonals = "equidistant"
	// DiagonalsEuclidean measures straight-line distance.
	DiagonalsEuclidean Diagonals = "euclidean"
)

// Config describes a scene grid.
type Config struct {
	Topology  Topology
	Size      float64 // pixels; square side, pointy-top hex width or flat-top hex height
	Distance  float64 // scene units per cell
	Units     string
	Diagonals Diagonals
}

// ErrInvalidSize is returned when the grid size is not positive
var ErrInvalidSize = errors.New("grid size must be positive")

// Layout is the built-in Metrics implementation.
type Layout struct {
	cfg    Config
	radius float64 // hex circumradius
	origin core.Point
}

var _ Metrics = (*Layout)(nil)

// NewLayout validates the configuration and precomputes the hex geometry.
func NewLayout(cfg Config) (*Layout, error) {
	if cfg.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if cfg.Topology == "" {
		cfg.Topology = Square
	}
	if _, err := ParseTopology(string(cfg.Topology)); err != nil {
		return nil, err
	}
	if cfg.Distance <= 0 {
		cfg.Distance = 1
	}
	if cfg.Diagonals == "" {
		cfg.Diagonals = DiagonalsEquidistant
	}
	if cfg.Diagonals != DiagonalsEquidistant && cfg.Diagonals != DiagonalsEuclidean {
		return nil, fmt.Errorf("unknown diagonal rule %q", cfg.Diagonals)
	}

	l := &Layout{cfg: cfg}
	if cfg.Topology.IsHex() {
		l.radius = cfg.Size / math.Sqrt(3)
		// Shift the origin so cell (0,0) and its shoved neighbours sit at positive pixels.
		switch cfg.Topology {
		case HexOddRow:
			l.origin = core.Point{X: cfg.Size / 2, Y: l.radius}
		case HexEvenRow:
			l.origin = core.Point{X: cfg.Size, Y: l.radius}
		case HexOddCol:
			l.origin = core.Point{X: l.radius, Y: cfg.Size / 2}
		case HexEvenCol:
			l.origin = core.Point{X: l.radius, Y: cfg.Size}
		}
	}
	return l, nil
}

func (l *Layout) Topology() Topology { return l.cfg.Topology }

func (l *Layout) DistancePerCell() float64 { return l.cfg.Distance }

// Units returns the scene distance unit label.
func (l *Layout) Units() string { return l.cfg.Units }

func (l *Layout) CellSize() (w, h float64) {
	switch {
	case !l.cfg.Topology.IsHex():
		return l.cfg.Size, l.cfg.Size
	case l.cfg.Topology.IsColumnar():
		return 2 * l.radius, l.cfg.Size
	default:
		return l.cfg.Size, 2 * l.radius
	}
}

func (l *Layout) PixelToOffset(p core.Point) OffsetCoord {
	if !l.cfg.Topology.IsHex() {
		return OffsetCoord{
			Col: int(math.Floor(p.X / l.cfg.Size)),
			Row: int(math.Floor(p.Y / l.cfg.Size)),
		}
	}
	return CubeToOffset(l.cfg.Topology, l.pixelToCube(p))
}

func (l *Layout) OffsetToPixelCenter(c OffsetCoord) core.Point {
	if !l.cfg.Topology.IsHex() {
		return core.Point{
			X: (float64(c.Col) + 0.5) * l.cfg.Size,
			Y: (float64(c.Row) + 0.5) * l.cfg.Size,
		}
	}
	h := OffsetToCube(l.cfg.Topology, c)
	q, r := float64(h.Q), float64(h.R)
	if l.cfg.Topology.IsColumnar() {
		return core.Point{
			X: l.origin.X + 1.5*l.radius*q,
			Y: l.origin.Y + l.cfg.Size*(r+q/2),
		}
	}
	return core.Point{
		X: l.origin.X + l.cfg.Size*(q+r/2),
		Y: l.origin.Y + 1.5*l.radius*r,
	}
}

func (l *Layout) pixelToCube(p core.Point) CubeCoord {
	x, y := p.X-l.origin.X, p.Y-l.origin.Y
	var q, r float64
	if l.cfg.Topology.IsColumnar() {
		q = x / (1.5 * l.radius)
		r = y/l.cfg.Size - q/2
	} else {
		r = y / (1.5 * l.radius)
		q = x/l.cfg.Size - r/2
	}
	return RoundCube(q, r, -q-r)
}

// CellPolygon returns the cell outline in scene pixels.
func (l *Layout) CellPolygon(c OffsetCoord) geom.Polygon {
	center := l.OffsetToPixelCenter(c)
	if !l.cfg.Topology.IsHex() {
		half := l.cfg.Size / 2
		return RingPolygon([]core.Point{
			{X: center.X - half, Y: center.Y - half},
			{X: center.X + half, Y: center.Y - half},
			{X: center.X + half, Y: center.Y + half},
			{X: center.X - half, Y: center.Y + half},
		})
	}

	start := math.Pi / 6 // pointy-top
	if l.cfg.Topology.IsColumnar() {
		start = 0
	}
	corners := make([]core.Point, 6)
	for i := range corners {
		a := start + float64(i)*math.Pi/3
		corners[i] = core.Point{
			X: center.X + l.radius*math.Cos(a),
			Y: center.Y + l.radius*math.Sin(a),
		}
	}
	return RingPolygon(corners)
}

// Measure returns the distance between two points in scene units.
// Hex grids count cube steps between the containing cells; square grids
// follow the configured diagonal rule.
func (l *Layout) Measure(a, b core.Point) float64 {
	if l.cfg.Topology.IsHex() {
		steps := CubeDistance(l.pixelToCube(a), l.pixelToCube(b))
		return float64(steps) * l.cfg.Distance
	}

	if l.cfg.Diagonals == DiagonalsEuclidean {
		d, ok := geom.Distance(a.XY().AsPoint().AsGeometry(), b.XY().AsPoint().AsGeometry())
		if !ok {
			return 0
		}
		return d / l.cfg.Size * l.cfg.Distance
	}

	dx := math.Abs(a.X-b.X) / l.cfg.Size
	dy := math.Abs(a.Y-b.Y) / l.cfg.Size
	return math.Max(dx, dy) * l.cfg.Distance
}

// RingPolygon builds a closed single-ring polygon from its corner points.
// Fewer than three corners yield an empty polygon.
func RingPolygon(pts []core.Point) geom.Polygon {
	if len(pts) < 3 {
		return geom.Polygon{}
	}
	flat := make([]float64, 0, (len(pts)+1)*2)
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	flat = append(flat, pts[0].X, pts[0].Y)
	ring := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	return geom.NewPolygon([]geom.LineString{ring})
}
