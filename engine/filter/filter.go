// Package filter decides whether a death starts penalty tracking.
package filter

import "github.com/nathoo/deathpenalty/types"

// ShouldTrack reports whether a death of victim with the given root cause
// should be recorded. Only deaths at the hands of another player are
// filterable; every other cause, suicide included, is always tracked.
func ShouldTrack(victim types.PlayerID, root types.CauseSource, f types.DeathTypeFilter) bool {
	if IsPvp(victim, root) {
		return f.AllowPvp
	}
	return true
}

// IsPvp reports whether root is a player other than victim.
func IsPvp(victim types.PlayerID, root types.CauseSource) bool {
	return root.Kind == types.CausePlayer && root.Player != victim
}
