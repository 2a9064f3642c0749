package memory

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tacgrid/reactions/internal/footprint"
	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/pkg/core"
)

// File is the on-disk scene fixture format.
type File struct {
	Users  []core.User `yaml:"users"`
	Pieces []PieceFile `yaml:"pieces"`
}

// PieceFile is one piece of a scene fixture.
type PieceFile struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name,omitempty"`
	X           float64      `yaml:"x"`
	Y           float64      `yaml:"y"`
	Elevation   float64      `yaml:"elevation,omitempty"`
	Width       float64      `yaml:"width,omitempty"`  // cells, defaults to 1
	Height      float64      `yaml:"height,omitempty"` // cells, defaults to 1
	Shape       []core.Point `yaml:"shape,omitempty"`  // local pixel outline
	Outline     string       `yaml:"outline,omitempty"` // "hex" inscribes a hexagon in the piece box
	Owners      []string     `yaml:"owners,omitempty"`
	Disposition string       `yaml:"disposition,omitempty"`
	Hidden      bool         `yaml:"hidden,omitempty"`
	Statuses    []string     `yaml:"statuses,omitempty"`
	Actor       *ActorFile   `yaml:"actor,omitempty"`
}

// ActorFile is the actor sheet of a fixture piece.
type ActorFile struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name,omitempty"`
	Type      string      `yaml:"type"`
	Structure *int        `yaml:"structure,omitempty"`
	HP        *int        `yaml:"hp,omitempty"`
	Reactions int         `yaml:"reactions"`
	Items     []core.Item `yaml:"items,omitempty"`
}

// OutlineHex selects a hexagonal piece outline sized to the scene grid.
const OutlineHex = "hex"

type loadOptions struct {
	metrics grid.Metrics
}

// LoadOption configures fixture loading.
type LoadOption func(*loadOptions)

// WithGrid lets outlines that depend on cell size be resolved.
func WithGrid(m grid.Metrics) LoadOption {
	return func(o *loadOptions) { o.metrics = m }
}

// LoadFile reads a YAML scene fixture from disk.
func LoadFile(path string, opts ...LoadOption) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Load decodes a YAML scene fixture into a new store.
func Load(r io.Reader, opts ...LoadOption) (*Store, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}

	s := New()
	for _, u := range file.Users {
		s.AddUser(u)
	}
	for i, pf := range file.Pieces {
		if pf.ID == "" {
			return nil, fmt.Errorf("piece %d has no id", i)
		}
		p := pf.toCore()
		switch pf.Outline {
		case "":
		case OutlineHex:
			if o.metrics == nil {
				return nil, fmt.Errorf("piece %s: hex outline needs the scene grid", pf.ID)
			}
			cw, ch := o.metrics.CellSize()
			p.Shape = footprint.HexShape(p.Width*cw, p.Height*ch, o.metrics.Topology().IsColumnar())
		default:
			return nil, fmt.Errorf("piece %s: unknown outline %q", pf.ID, pf.Outline)
		}
		s.AddPiece(p)
	}
	return s, nil
}

func (pf PieceFile) toCore() core.Piece {
	p := core.Piece{
		ID:          pf.ID,
		Name:        pf.Name,
		Position:    core.Point{X: pf.X, Y: pf.Y},
		Elevation:   pf.Elevation,
		Width:       pf.Width,
		Height:      pf.Height,
		Owners:      pf.Owners,
		Disposition: core.ParseDisposition(pf.Disposition),
		Hidden:      pf.Hidden,
		Statuses:    pf.Statuses,
	}
	if p.Width <= 0 {
		p.Width = 1
	}
	if p.Height <= 0 {
		p.Height = 1
	}
	if len(pf.Shape) > 0 {
		p.Shape = grid.RingPolygon(pf.Shape)
	}
	if pf.Actor != nil {
		items := pf.Actor.Items
		for i := range items {
			// yaml leaves omitted ints at zero, which would select the first profile
			if len(items[i].Profiles) == 0 {
				items[i].ActiveProfile = -1
			}
		}
		id := pf.Actor.ID
		if id == "" {
			id = pf.ID
		}
		p.Actor = &core.Actor{
			ID:        id,
			Name:      pf.Actor.Name,
			Type:      core.ActorType(pf.Actor.Type),
			Structure: pf.Actor.Structure,
			HP:        pf.Actor.HP,
			Reactions: pf.Actor.Reactions,
			Items:     items,
		}
	}
	return p
}
