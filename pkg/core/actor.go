package core

// ActorType tags the kind of actor behind a piece.
type ActorType string

const (
	ActorMech       ActorType = "mech"
	ActorNPC        ActorType = "npc"
	ActorPilot      ActorType = "pilot"
	ActorDeployable ActorType = "deployable"
)

// ItemType tags an equipped item.
type ItemType string

const (
	ItemMechWeapon  ItemType = "mech_weapon"
	ItemNPCFeature  ItemType = "npc_feature"
	ItemPilotWeapon ItemType = "pilot_weapon"
)

// RangeEntry is a single range tag on a weapon, e.g. {Type: "Threat", Val: "3"}.
// Val is kept as text since item data is user-entered.
type RangeEntry struct {
	Type string `json:"type" yaml:"type"`
	Val  string `json:"val" yaml:"val"`
}

// Profile is one firing mode of a weapon.
type Profile struct {
	Name   string       `json:"name" yaml:"name"`
	Ranges []RangeEntry `json:"range" yaml:"range"`
}

// Item is an equipped piece of gear.
type Item struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	Type          ItemType     `json:"type" yaml:"type"`
	Equipped      bool         `json:"equipped" yaml:"equipped"`
	Destroyed     bool         `json:"destroyed" yaml:"destroyed"`
	Ranges        []RangeEntry `json:"range" yaml:"range"`
	Profiles      []Profile    `json:"profiles" yaml:"profiles"`
	ActiveProfile int          `json:"selectedProfile" yaml:"selectedProfile"` // -1 when no profile is selected
}

// Actor is the character sheet behind a piece.
type Actor struct {
	ID        string
	Name      string
	Type      ActorType
	Structure *int // mechs and NPCs; nil when unknown
	HP        *int // pilots; nil when unknown
	Reactions int  // reaction resource, never negative
	Items     []Item
}

// Destroyed reports whether the actor is out of the fight: structure exactly 0
// for mechs and NPCs, HP exactly 0 for pilots.
func (a *Actor) Destroyed() bool {
	if a == nil {
		return false
	}
	switch a.Type {
	case ActorPilot:
		return a.HP != nil && *a.HP == 0
	default:
		return a.Structure != nil && *a.Structure == 0
	}
}
