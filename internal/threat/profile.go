// Package threat decides when reactions fire: overwatch against movers inside a
// reactor's threat range, and engagement between adjacent hostile pieces.
package threat

import (
	"strconv"
	"strings"

	"github.com/tacgrid/reactions/pkg/core"
)

// RangeThreat is the range tag that defines overwatch reach.
const RangeThreat = "Threat"

// DefaultThreat applies to anything without a usable threat range.
const DefaultThreat = 1

// MaxThreat returns the largest threat range among the actor's usable weapons.
// Only mechs, NPCs and pilots carry weapons; destroyed and unequipped items are ignored.
func MaxThreat(a *core.Actor) int {
	if a == nil {
		return DefaultThreat
	}
	switch a.Type {
	case core.ActorMech, core.ActorNPC, core.ActorPilot:
	default:
		return DefaultThreat
	}

	best := 0
	for _, item := range a.Items {
		if !weaponBearing(item) {
			continue
		}
		for _, r := range itemRanges(item) {
			if r.Type != RangeThreat {
				continue
			}
			v, err := strconv.Atoi(strings.TrimSpace(r.Val))
			if err != nil {
				continue
			}
			best = max(best, v)
		}
	}
	if best < DefaultThreat {
		return DefaultThreat
	}
	return best
}

func weaponBearing(item core.Item) bool {
	if !item.Equipped || item.Destroyed {
		return false
	}
	switch item.Type {
	case core.ItemMechWeapon, core.ItemNPCFeature, core.ItemPilotWeapon:
		return true
	}
	return false
}

// itemRanges is the union of every profile's ranges, the direct ranges and the active profile's ranges.
func itemRanges(item core.Item) []core.RangeEntry {
	var out []core.RangeEntry
	for _, p := range item.Profiles {
		out = append(out, p.Ranges...)
	}
	out = append(out, item.Ranges...)
	if item.ActiveProfile >= 0 && item.ActiveProfile < len(item.Profiles) {
		out = append(out, item.Profiles[item.ActiveProfile].Ranges...)
	}
	return out
}
