// Package dungeon parses grotto dungeon markup into an addressable
// Document. Dungeon content is a line-oriented plain-text format: a line
// beginning with '^' opens a room, '@' opens an encounter inside the current
// room, '!' (or a bare number) adds a choice to the current encounter, '#'
// declares an event, and a '%' line separates an encounter's narration from
// its numbered choice list.
//
// Parsing is deliberately forgiving. Problems in the markup are collected as
// Problem records and returned next to the Document rather than aborting, so
// a dungeon with a typo in one room still loads every other room. Author
// tooling depends on these partial results.
package dungeon

import (
	"fmt"
	"sort"
)

// Document is an ordered mapping of line IDs to the structural nodes parsed
// from one dungeon's markup. Line IDs are fully qualified: a room's ID is its
// label, an encounter's is "room.encounter", and a choice's is
// "room.encounter.choice". A Document is built once per parse and is
// read-only afterward; runtime state such as "visited" never lives here.
type Document struct {
	order []string
	nodes map[string]Node
}

// Get returns the node stored under the given fully-qualified line ID.
func (d *Document) Get(lineID string) (Node, bool) {
	n, ok := d.nodes[lineID]
	return n, ok
}

// IDs returns every line ID in the Document in source order.
func (d *Document) IDs() []string {
	ids := make([]string, len(d.order))
	copy(ids, d.order)
	return ids
}

// Len returns the number of nodes in the Document.
func (d *Document) Len() int {
	return len(d.order)
}

// Rooms returns every RoomNode in the Document in source order.
func (d *Document) Rooms() []RoomNode {
	var rooms []RoomNode
	for _, id := range d.order {
		if n := d.nodes[id]; n.Type() == NodeRoom {
			rooms = append(rooms, n.AsRoom())
		}
	}
	return rooms
}

// Room returns the RoomNode with the given label.
func (d *Document) Room(label string) (RoomNode, bool) {
	n, ok := d.nodes[label]
	if !ok || n.Type() != NodeRoom {
		return RoomNode{}, false
	}
	return n.AsRoom(), true
}

// Encounter returns the EncounterNode with the given fully-qualified ID.
func (d *Document) Encounter(lineID string) (EncounterNode, bool) {
	n, ok := d.nodes[lineID]
	if !ok || n.Type() != NodeEncounter {
		return EncounterNode{}, false
	}
	return n.AsEncounter(), true
}

// Choice returns the ChoiceNode with the given fully-qualified ID.
func (d *Document) Choice(lineID string) (ChoiceNode, bool) {
	n, ok := d.nodes[lineID]
	if !ok || n.Type() != NodeChoice {
		return ChoiceNode{}, false
	}
	return n.AsChoice(), true
}

// Events returns every EventNode owned by the given parent, in source order.
func (d *Document) Events(parentID string) []EventNode {
	var evs []EventNode
	for _, id := range d.order {
		if n := d.nodes[id]; n.Type() == NodeEvent {
			ev := n.AsEvent()
			if ev.Parent == parentID {
				evs = append(evs, ev)
			}
		}
	}
	return evs
}

// add places a node in the document under its line ID. It returns an error
// if the line ID is already taken.
func (d *Document) add(lineID string, n Node) error {
	if d.nodes == nil {
		d.nodes = make(map[string]Node)
	}
	if _, ok := d.nodes[lineID]; ok {
		return fmt.Errorf("id %q is already in use", lineID)
	}
	d.nodes[lineID] = n
	d.order = append(d.order, lineID)
	return nil
}

// Problem is a single non-fatal issue found while parsing dungeon markup. The
// Line is the 1-based line number of the offending markup.
type Problem struct {
	Line    int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("line %d: %s", p.Line, p.Message)
}

// SortProblems orders problems by line number, in place.
func SortProblems(probs []Problem) {
	sort.Slice(probs, func(i, j int) bool {
		return probs[i].Line < probs[j].Line
	})
}
