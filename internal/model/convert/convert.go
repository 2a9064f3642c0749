package convert

import (
	"encoding/json"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/tacgrid/reactions/internal/model"
	"github.com/tacgrid/reactions/pkg/core"
)

// lineStringToPath converts a geom.LineString back to the start and end of a move
func lineStringToPath(ls geom.LineString) (start, end core.Point, ok bool) {
	seq := ls.Coordinates()
	if seq.Length() < 2 {
		return core.Point{}, core.Point{}, false
	}
	s, e := seq.GetXY(0), seq.GetXY(seq.Length()-1)
	return core.Point{X: s.X, Y: s.Y}, core.Point{X: e.X, Y: e.Y}, true
}

func jsonToStrings(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	_ = json.Unmarshal(data, &out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// UserToCore converts a GORM User to a core.User.
func UserToCore(u model.User) core.User {
	return core.User{
		ID:     u.ID,
		Name:   u.Name,
		Active: u.Active,
		GM:     u.GM,
	}
}

// ActorToCore converts a GORM Actor to a core.Actor.
// Malformed item JSON yields an actor without items.
func ActorToCore(a model.Actor) core.Actor {
	var items []core.Item
	if len(a.Items) > 0 {
		if err := json.Unmarshal(a.Items, &items); err != nil {
			items = nil
		}
	}
	return core.Actor{
		ID:        a.ID,
		Name:      a.Name,
		Type:      core.ActorType(a.Type),
		Structure: a.Structure,
		HP:        a.HP,
		Reactions: a.Reactions,
		Items:     items,
	}
}

// PieceToCore converts a GORM Piece to a core.Piece, including its actor when preloaded.
func PieceToCore(p model.Piece) core.Piece {
	out := core.Piece{
		ID:          p.ID,
		Name:        p.Name,
		Position:    core.Point{X: p.X, Y: p.Y},
		Elevation:   p.Elevation,
		Width:       p.Width,
		Height:      p.Height,
		Shape:       p.Shape,
		Owners:      jsonToStrings(p.Owners),
		Disposition: core.Disposition(p.Disposition),
		Hidden:      p.Hidden,
		Statuses:    jsonToStrings(p.Statuses),
	}
	if p.Actor != nil {
		a := ActorToCore(*p.Actor)
		out.Actor = &a
	}
	return out
}

// OverwatchToCore converts a history row back to the triggered reactor and its move.
func OverwatchToCore(o model.OverwatchTrigger) (core.TriggeredReactor, core.TriggerEvent) {
	e := core.TriggerEvent{PieceID: o.MoverID}
	if start, end, ok := lineStringToPath(o.Path); ok {
		e.Start, e.End = start, end
	}
	return core.TriggeredReactor{ReactorID: o.ReactorID, MoverID: o.MoverID}, e
}
