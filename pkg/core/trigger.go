package core

// User is a known user of the table. Active users have a connected session.
type User struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Active bool   `json:"active" yaml:"active"`
	GM     bool   `json:"gm" yaml:"gm"`
}

// CanWrite reports whether the user has write authority over the piece.
func (u User) CanWrite(p Piece) bool {
	return u.GM || p.OwnedBy(u.ID)
}

// TriggerEvent describes a piece's movement.
type TriggerEvent struct {
	PieceID        string
	Start          Point
	End            Point
	ElevationDelta float64
}

// Moved reports whether the event carries any movement at all.
func (e TriggerEvent) Moved() bool {
	return e.Start != e.End || e.ElevationDelta != 0
}

// TriggeredReactor is a reactor whose reaction condition held against a mover.
type TriggeredReactor struct {
	ReactorID string `json:"reactorId"`
	MoverID   string `json:"moverId"`
}
