package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&User{},
	&Actor{},
	&Piece{},
	&OverwatchTrigger{},
	&EngagementChange{},
}

////////////////////////
// SCENE MODELS
////////////////////////

// User is a known user of the table
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `json:"name" gorm:"size:127"`
	Active    bool      `json:"active" gorm:"default:false;index:idx_user_active"` // has a connected session
	GM        bool      `json:"gm" gorm:"default:false"`
}

func (*User) TableName() string {
	return "users"
}

// Actor is the character sheet behind one or more pieces
type Actor struct {
	ID        string         `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Name      string         `json:"name" gorm:"size:127"`
	Type      string         `json:"type" gorm:"size:16"`      // mech, npc, pilot, deployable
	Structure *int           `json:"structure" gorm:"default:NULL"` // NULL when unknown
	HP        *int           `json:"hp" gorm:"default:NULL"`
	Reactions int            `json:"reactions" gorm:"default:0"`
	Items     datatypes.JSON `json:"items" gorm:"type:jsonb;default:'[]'"` // equipped items with range entries
}

func (*Actor) TableName() string {
	return "actors"
}

// Piece is a token placed on the scene grid
type Piece struct {
	ID          string         `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"deletedAt" gorm:"index"`
	SortOrder   int            `json:"sortOrder" gorm:"index:idx_piece_sort_order"` // scene order
	Name        string         `json:"name" gorm:"size:127"`
	X           float64        `json:"x"` // top-left pixel
	Y           float64        `json:"y"`
	Elevation   float64        `json:"elevation"`
	Width       float64        `json:"width" gorm:"default:1"` // cells
	Height      float64        `json:"height" gorm:"default:1"`
	Shape       geom.Polygon   `json:"shape"` // local-space outline, empty for the bounding rectangle
	Owners      datatypes.JSON `json:"owners" gorm:"type:jsonb;default:'[]'"`
	Disposition int            `json:"disposition" gorm:"default:0"`
	Hidden      bool           `json:"hidden" gorm:"default:false"`
	Statuses    datatypes.JSON `json:"statuses" gorm:"type:jsonb;default:'[]'"`
	ActorID     *string        `json:"actorId" gorm:"size:64;default:NULL;index:idx_piece_actor_id"`
	Actor       *Actor         `gorm:"foreignkey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func (*Piece) TableName() string {
	return "pieces"
}

////////////////////////
// HISTORY MODELS
////////////////////////

// OverwatchTrigger records one reactor triggered by a move
type OverwatchTrigger struct {
	ID        uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time       `json:"time" gorm:"index:idx_overwatch_time"`
	ReactorID string          `json:"reactorId" gorm:"size:64;index:idx_overwatch_reactor_id"`
	MoverID   string          `json:"moverId" gorm:"size:64"`
	Path      geom.LineString `json:"path"` // start to end of the move
}

func (*OverwatchTrigger) TableName() string {
	return "overwatch_triggers"
}

// EngagementChange records a piece entering or leaving engagement
type EngagementChange struct {
	ID      uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time    time.Time `json:"time" gorm:"index:idx_engagement_time"`
	PieceID string    `json:"pieceId" gorm:"size:64;index:idx_engagement_piece_id"`
	Engaged bool      `json:"engaged"`
}

func (*EngagementChange) TableName() string {
	return "engagement_changes"
}
