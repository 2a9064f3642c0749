// Package grid converts between offset, cube and pixel coordinates for square
// and hexagonal scene grids.
package grid

import "math"

// OffsetCoord is a cell address in the scene's native column/row indexing.
type OffsetCoord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// CubeCoord is a hex cell address. For hex topologies Q+R+S is always zero.
type CubeCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// NewCube builds a cube coordinate from its two independent axes.
func NewCube(q, r int) CubeCoord {
	return CubeCoord{Q: q, R: r, S: -q - r}
}

// OffsetToCube converts an offset address to cube coordinates.
// Square grids pass through with S fixed at zero; those values are never used for hex distance.
func OffsetToCube(t Topology, c OffsetCoord) CubeCoord {
	switch t {
	case HexOddRow:
		return NewCube(c.Col-(c.Row-(c.Row&1))/2, c.Row)
	case HexEvenRow:
		return NewCube(c.Col-(c.Row+(c.Row&1))/2, c.Row)
	case HexOddCol:
		return NewCube(c.Col, c.Row-(c.Col-(c.Col&1))/2)
	case HexEvenCol:
		return NewCube(c.Col, c.Row-(c.Col+(c.Col&1))/2)
	default:
		return CubeCoord{Q: c.Col, R: c.Row, S: 0}
	}
}

// CubeToOffset is the exact inverse of OffsetToCube.
func CubeToOffset(t Topology, h CubeCoord) OffsetCoord {
	switch t {
	case HexOddRow:
		return OffsetCoord{Col: h.Q + (h.R-(h.R&1))/2, Row: h.R}
	case HexEvenRow:
		return OffsetCoord{Col: h.Q + (h.R+(h.R&1))/2, Row: h.R}
	case HexOddCol:
		return OffsetCoord{Col: h.Q, Row: h.R + (h.Q-(h.Q&1))/2}
	case HexEvenCol:
		return OffsetCoord{Col: h.Q, Row: h.R + (h.Q+(h.Q&1))/2}
	default:
		return OffsetCoord{Col: h.Q, Row: h.R}
	}
}

// CubeDistance returns the number of hex steps between a and b.
func CubeDistance(a, b CubeCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S-b.S))
}

// RoundCube snaps fractional cube coordinates to the containing hex,
// resetting the axis with the largest rounding error so the sum stays zero.
func RoundCube(q, r, s float64) CubeCoord {
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)
	dq, dr, ds := math.Abs(rq-q), math.Abs(rr-r), math.Abs(rs-s)

	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	default:
		rs = -rq - rr
	}
	return CubeCoord{Q: int(rq), R: int(rr), S: int(rs)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
