package grid

import (
	"errors"
	"fmt"
	"strings"
)

// Topology selects the coordinate formulas for a scene grid.
type Topology string

const (
	Square     Topology = "square"
	HexOddRow  Topology = "hex-odd-row"
	HexEvenRow Topology = "hex-even-row"
	HexOddCol  Topology = "hex-odd-col"
	HexEvenCol Topology = "hex-even-col"
)

// ErrUnknownTopology is returned when a topology name cannot be parsed
var ErrUnknownTopology = errors.New("unknown grid topology")

// ParseTopology parses a topology name, case-insensitively.
func ParseTopology(s string) (Topology, error) {
	switch t := Topology(strings.ToLower(strings.TrimSpace(s))); t {
	case Square, HexOddRow, HexEvenRow, HexOddCol, HexEvenCol:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTopology, s)
	}
}

// IsHex reports whether the topology is one of the four hex layouts.
func (t Topology) IsHex() bool {
	switch t {
	case HexOddRow, HexEvenRow, HexOddCol, HexEvenCol:
		return true
	}
	return false
}

// IsColumnar reports whether the topology uses flat-top hexes laid out in columns.
func (t Topology) IsColumnar() bool {
	return t == HexOddCol || t == HexEvenCol
}
