// Package game holds the mutable state of one play session and the built-in
// action vocabulary that mutates it. The parsed document never changes at
// runtime; everything that does, flags, visited history, inventory, and the
// player's position, lives here.
package game

import (
	"strings"
)

// State is everything a play session accumulates. It is a plain data struct
// so a session can be serialized wholesale for persistence.
type State struct {
	// CurrentDungeon scopes bare flag names in condition paths.
	CurrentDungeon string

	// Flags maps dungeon id to flag name to value.
	Flags map[string]map[string]float64

	// Visited records the line ids of choices, encounters, and events the
	// player has been through.
	Visited map[string]bool

	// Items is the player's inventory, item id to count.
	Items map[string]int

	// Room and Encounter are the player's current position. Encounter is
	// empty while in room narration.
	Room      string
	Encounter string

	// Music is the current background track. Sounds collects one-shot
	// effects queued since the last render; the presentation layer drains
	// it. Views are unlocked gallery entries.
	Music  string
	Sounds []string
	Views  []string

	// Ended marks the session finished.
	Ended bool
}

// NewState creates an empty session state scoped to dungeonID.
func NewState(dungeonID string) *State {
	return &State{
		CurrentDungeon: dungeonID,
		Flags:          make(map[string]map[string]float64),
		Visited:        make(map[string]bool),
		Items:          make(map[string]int),
	}
}

// GetFlag reads a flag by path. A bare "flagName" reads from the current
// dungeon; "dungeonId.flagName" reads across dungeons. Unknown paths read
// as 0.
func (s *State) GetFlag(path string) float64 {
	dng, name := s.splitPath(path)
	return s.Flags[dng][name]
}

// SetFlag writes a flag by path, using the same addressing as GetFlag.
func (s *State) SetFlag(path string, v float64) {
	dng, name := s.splitPath(path)
	if s.Flags[dng] == nil {
		s.Flags[dng] = make(map[string]float64)
	}
	s.Flags[dng][name] = v
}

// AddFlag adds delta to the flag at path.
func (s *State) AddFlag(path string, delta float64) {
	s.SetFlag(path, s.GetFlag(path)+delta)
}

func (s *State) splitPath(path string) (dungeon, name string) {
	if dot := strings.IndexByte(path, '.'); dot != -1 {
		return path[:dot], path[dot+1:]
	}
	return s.CurrentDungeon, path
}

// MarkVisited records a line id as visited.
func (s *State) MarkVisited(lineID string) {
	s.Visited[lineID] = true
}

// WasVisited reports whether a line id has been visited.
func (s *State) WasVisited(lineID string) bool {
	return s.Visited[lineID]
}

// Give adds count of an item to the inventory.
func (s *State) Give(itemID string, count int) {
	s.Items[itemID] += count
}

// Take removes up to count of an item. The count never goes negative.
func (s *State) Take(itemID string, count int) {
	s.Items[itemID] -= count
	if s.Items[itemID] <= 0 {
		delete(s.Items, itemID)
	}
}

// Has reports whether at least one of the item is held.
func (s *State) Has(itemID string) bool {
	return s.Items[itemID] > 0
}

// DrainSounds returns and clears the queued one-shot sound effects.
func (s *State) DrainSounds() []string {
	out := s.Sounds
	s.Sounds = nil
	return out
}
