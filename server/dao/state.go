package dao

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/rezi"
)

// PlayState is the complete persistable state of one run through a dungeon:
// the player's position, flags, visited history, inventory, and presentation
// state. It round-trips through a REZI binary encoding so the sqlite store
// can keep it in a single column.
type PlayState struct {
	// Dungeon scopes bare flag names; flags set across dungeons keep their
	// own scope.
	Dungeon string

	// Room and Encounter are the player's position. Encounter is the full
	// line id ("room.encounter"), or empty while in room narration.
	Room      string
	Encounter string

	// Flags maps dungeon id to flag name to value.
	Flags map[string]map[string]float64

	// Visited holds the line ids the player has been through.
	Visited []string

	// Items is the inventory, item id to count.
	Items map[string]int

	// Music is the current background track. Views are unlocked gallery
	// entries.
	Music string
	Views []string

	// Ended marks the run finished.
	Ended bool
}

// MarshalBinary converts the state to a REZI-encodable byte slice. Maps are
// flattened to sorted "key=value" string slices so the encoding is
// deterministic for a given state.
func (p PlayState) MarshalBinary() ([]byte, error) {
	var enc []byte

	enc = append(enc, rezi.EncString(p.Dungeon)...)
	enc = append(enc, rezi.EncString(p.Room)...)
	enc = append(enc, rezi.EncString(p.Encounter)...)
	enc = append(enc, rezi.EncSliceString(flattenFlags(p.Flags))...)
	enc = append(enc, rezi.EncSliceString(sortedCopy(p.Visited))...)
	enc = append(enc, rezi.EncSliceString(flattenItems(p.Items))...)
	enc = append(enc, rezi.EncString(p.Music)...)
	enc = append(enc, rezi.EncSliceString(p.Views)...)
	enc = append(enc, rezi.EncBool(p.Ended)...)

	return enc, nil
}

// UnmarshalBinary reads a REZI-encoded state produced by MarshalBinary.
func (p *PlayState) UnmarshalBinary(data []byte) error {
	var n int
	var err error

	p.Dungeon, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("dungeon: %w", err)
	}
	data = data[n:]

	p.Room, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("room: %w", err)
	}
	data = data[n:]

	p.Encounter, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("encounter: %w", err)
	}
	data = data[n:]

	flatFlags, n, err := rezi.DecSliceString(data)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	data = data[n:]
	p.Flags, err = unflattenFlags(flatFlags)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}

	p.Visited, n, err = rezi.DecSliceString(data)
	if err != nil {
		return fmt.Errorf("visited: %w", err)
	}
	data = data[n:]

	flatItems, n, err := rezi.DecSliceString(data)
	if err != nil {
		return fmt.Errorf("items: %w", err)
	}
	data = data[n:]
	p.Items, err = unflattenItems(flatItems)
	if err != nil {
		return fmt.Errorf("items: %w", err)
	}

	p.Music, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("music: %w", err)
	}
	data = data[n:]

	p.Views, n, err = rezi.DecSliceString(data)
	if err != nil {
		return fmt.Errorf("views: %w", err)
	}
	data = data[n:]

	p.Ended, _, err = rezi.DecBool(data)
	if err != nil {
		return fmt.Errorf("ended: %w", err)
	}

	return nil
}

// flattenFlags turns the two-level flag map into sorted
// "dungeon.flag=value" entries. The first '.' scopes the flag, matching the
// engine's flag-path rules, and formatted values never contain '=' so the
// last '=' splits unambiguously on the way back in.
func flattenFlags(flags map[string]map[string]float64) []string {
	var flat []string
	for dungeonID, byName := range flags {
		for name, v := range byName {
			val := strconv.FormatFloat(v, 'f', -1, 64)
			flat = append(flat, dungeonID+"."+name+"="+val)
		}
	}
	sort.Strings(flat)
	return flat
}

func unflattenFlags(flat []string) (map[string]map[string]float64, error) {
	flags := make(map[string]map[string]float64)
	for _, entry := range flat {
		eq := strings.LastIndex(entry, "=")
		if eq < 0 {
			return nil, fmt.Errorf("entry %q: %w", entry, ErrDecodingFailure)
		}
		path, valStr := entry[:eq], entry[eq+1:]

		dungeonID, name, ok := strings.Cut(path, ".")
		if !ok {
			return nil, fmt.Errorf("entry %q: %w", entry, ErrDecodingFailure)
		}
		v, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, ErrDecodingFailure)
		}

		if flags[dungeonID] == nil {
			flags[dungeonID] = make(map[string]float64)
		}
		flags[dungeonID][name] = v
	}
	return flags, nil
}

func flattenItems(items map[string]int) []string {
	var flat []string
	for id, count := range items {
		flat = append(flat, id+"="+strconv.Itoa(count))
	}
	sort.Strings(flat)
	return flat
}

func unflattenItems(flat []string) (map[string]int, error) {
	items := make(map[string]int)
	for _, entry := range flat {
		id, countStr, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q: %w", entry, ErrDecodingFailure)
		}
		count, err := strconv.Atoi(countStr)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, ErrDecodingFailure)
		}
		items[id] = count
	}
	return items, nil
}

func sortedCopy(s []string) []string {
	cp := make([]string, len(s))
	copy(cp, s)
	sort.Strings(cp)
	return cp
}
