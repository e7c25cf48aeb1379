package roster

const twoWayPlayer = "Two-Way Player"

// Pitchers returns entries in the pitching group. Two-way players are included.
func Pitchers(entries []RosterEntry) []RosterEntry {
	return filterEntries(entries, func(e RosterEntry) bool {
		return e.Position.Type == "Pitcher" || e.Position.Name == twoWayPlayer
	})
}

// PositionPlayers returns entries in the position-player group. Two-way
// players are included here too, so the two groups overlap.
func PositionPlayers(entries []RosterEntry) []RosterEntry {
	return filterEntries(entries, func(e RosterEntry) bool {
		return e.Position.Type != "Pitcher" || e.Position.Name == twoWayPlayer
	})
}

// Active returns entries whose status code is "A".
func Active(entries []RosterEntry) []RosterEntry {
	return filterEntries(entries, func(e RosterEntry) bool {
		return e.Status.Code == "A"
	})
}

func filterEntries(entries []RosterEntry, keep func(RosterEntry) bool) []RosterEntry {
	out := make([]RosterEntry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
