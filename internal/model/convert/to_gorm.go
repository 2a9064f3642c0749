// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/tacgrid/reactions/internal/model"
	"github.com/tacgrid/reactions/pkg/core"
)

// pathToLineString converts a move to a two-point geom.LineString
func pathToLineString(start, end core.Point) geom.LineString {
	seq := geom.NewSequence([]float64{start.X, start.Y, end.X, end.Y}, geom.DimXY)
	return geom.NewLineString(seq)
}

// stringsToJSON converts a []string to datatypes.JSON for DB storage.
func stringsToJSON(s []string) datatypes.JSON {
	if len(s) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(s)
	return datatypes.JSON(data)
}

// CoreToUser converts a core.User to a GORM model.User.
func CoreToUser(u core.User) model.User {
	return model.User{
		ID:     u.ID,
		Name:   u.Name,
		Active: u.Active,
		GM:     u.GM,
	}
}

// CoreToActor converts a core.Actor to a GORM model.Actor.
func CoreToActor(a core.Actor) model.Actor {
	items := datatypes.JSON("[]")
	if len(a.Items) > 0 {
		items, _ = json.Marshal(a.Items)
	}
	return model.Actor{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Structure: a.Structure,
		HP:        a.HP,
		Reactions: a.Reactions,
		Items:     items,
	}
}

// CoreToPiece converts a core.Piece to a GORM model.Piece.
// The actor is referenced by ID only; store it separately with CoreToActor.
func CoreToPiece(p core.Piece, sortOrder int) model.Piece {
	m := model.Piece{
		ID:          p.ID,
		SortOrder:   sortOrder,
		Name:        p.Name,
		X:           p.Position.X,
		Y:           p.Position.Y,
		Elevation:   p.Elevation,
		Width:       p.Width,
		Height:      p.Height,
		Shape:       p.Shape,
		Owners:      stringsToJSON(p.Owners),
		Disposition: int(p.Disposition),
		Hidden:      p.Hidden,
		Statuses:    stringsToJSON(p.Statuses),
	}
	if p.Actor != nil {
		id := p.Actor.ID
		m.ActorID = &id
	}
	return m
}

// TriggerToOverwatch converts a triggered reactor of a move to a history row.
func TriggerToOverwatch(e core.TriggerEvent, r core.TriggeredReactor, at time.Time) model.OverwatchTrigger {
	return model.OverwatchTrigger{
		Time:      at,
		ReactorID: r.ReactorID,
		MoverID:   r.MoverID,
		Path:      pathToLineString(e.Start, e.End),
	}
}
