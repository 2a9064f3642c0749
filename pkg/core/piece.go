// pkg/core/piece.go
package core

import (
	"slices"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Point is a continuous scene-space pixel coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// XY converts the point to a simplefeatures coordinate pair.
func (p Point) XY() geom.XY {
	return geom.XY{X: p.X, Y: p.Y}
}

// Disposition is a piece's faction stance.
type Disposition int

const (
	DispositionSecret   Disposition = -2
	DispositionHostile  Disposition = -1
	DispositionNeutral  Disposition = 0
	DispositionFriendly Disposition = 1
)

// ParseDisposition maps a disposition name to its value. Unknown names are neutral.
func ParseDisposition(s string) Disposition {
	switch s {
	case "secret":
		return DispositionSecret
	case "hostile":
		return DispositionHostile
	case "friendly":
		return DispositionFriendly
	default:
		return DispositionNeutral
	}
}

func (d Disposition) String() string {
	switch d {
	case DispositionSecret:
		return "secret"
	case DispositionHostile:
		return "hostile"
	case DispositionFriendly:
		return "friendly"
	default:
		return "neutral"
	}
}

// Status IDs the reaction core reads or writes.
const (
	StatusEngaged    = "engaged"
	StatusHidden     = "hidden"
	StatusDisengage  = "disengage"
	StatusIntangible = "intangible"
)

// Piece is a token placed on the scene grid.
// Position is the top-left pixel corner; Width and Height are measured in cells.
type Piece struct {
	ID          string
	Name        string
	Position    Point
	Elevation   float64
	Width       float64
	Height      float64
	Shape       geom.Polygon // local space, origin at Position; empty means the bounding rectangle
	Owners      []string     // user IDs with owner permission
	Disposition Disposition
	Hidden      bool
	Statuses    []string
	Actor       *Actor // nil when the piece carries no actor data
}

// HasStatus reports whether the piece carries the status ID.
func (p Piece) HasStatus(status string) bool {
	return slices.Contains(p.Statuses, status)
}

// OwnedBy reports whether userID is listed as an owner.
func (p Piece) OwnedBy(userID string) bool {
	return slices.Contains(p.Owners, userID)
}

// At returns a copy of the piece moved to the given top-left position.
func (p Piece) At(pos Point) Piece {
	p.Position = pos
	return p
}
