package server

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ashgrowen/grotto/internal/dungeon"
	"github.com/ashgrowen/grotto/internal/game"
	"github.com/ashgrowen/grotto/internal/logic"
	"github.com/ashgrowen/grotto/internal/runtime"
	"github.com/ashgrowen/grotto/server/dao"
	"github.com/ashgrowen/grotto/server/serr"
)

// play is a headless rendition of the CLI engine's scene loop. It is rebuilt
// from the stored markup and PlayState for every request, advanced at most
// one choice, and snapshotted back; nothing about a session lives in server
// memory between requests.
type play struct {
	doc  dungeon.Document
	st   *game.State
	in   *logic.Interpreter
	disp *logic.Dispatcher

	// narration collects the text produced by everything executed during
	// this request, in order.
	narration []string

	// nextRoom is set by the delayed goto handler during a flush and picked
	// up right after, when the transition loads the new scene.
	nextRoom string
}

// newPlay builds a play over the given markup, resuming from ps. Parse
// problems are not reported here; they were already collected and returned
// to the author at upload time.
func newPlay(markup string, ps dao.PlayState) (*play, error) {
	doc, _ := dungeon.Parse(markup)
	if len(doc.Rooms()) == 0 {
		return nil, serr.New("dungeon markup has no rooms", serr.ErrBadArgument)
	}

	p := &play{
		doc: doc,
		st:  stateFromDAO(ps),
	}
	p.disp = logic.NewDispatcher(logic.NewPendingQueue())
	p.in = logic.New(p.st, p.disp)
	game.RegisterBuiltins(p.disp, p.st, p)
	game.RegisterConditions(p.in, p.st)

	return p, nil
}

// Goto records the room that the current scene transition moves to. It runs
// from the delayed goto handler during a flush.
func (p *play) Goto(roomLabel string) error {
	if _, ok := p.doc.Room(roomLabel); !ok {
		return fmt.Errorf("no room %q in dungeon", roomLabel)
	}
	p.nextRoom = roomLabel
	return nil
}

// End is a no-op; the end handler already marks the state ended and the
// request loop stops on its own.
func (p *play) End() {}

// start begins a fresh run at the markup's first room.
func (p *play) start() error {
	return p.enterRoom(p.doc.Rooms()[0].Label)
}

// choose advances the run by taking choice n (1-based) of the current
// encounter's visible choice list. The returned error matches
// serr.ErrBadArgument when n does not name an offered, available choice.
func (p *play) choose(n int) error {
	if p.st.Ended {
		return serr.New("this session has already ended", serr.ErrBadArgument)
	}

	encNode, ok := p.doc.Encounter(p.st.Encounter)
	if !ok {
		return serr.New("this session has nothing left to choose", serr.ErrBadArgument)
	}

	enc := runtime.NewEncounter(p.in, &p.doc, encNode, p.st)
	choices := enc.VisibleChoices()
	if n < 1 || n > len(choices) {
		return serr.New(fmt.Sprintf("choice %d is not one of the offered choices", n), serr.ErrBadArgument)
	}

	res, ok := choices[n-1].Do()
	if !ok {
		return serr.New("that choice is not available right now", serr.ErrBadArgument)
	}
	p.say(res)

	moved := p.transition()
	if p.st.Ended {
		return nil
	}
	if moved {
		return p.enterRoom(p.st.Room)
	}

	room, ok := p.doc.Room(p.st.Room)
	if !ok {
		return fmt.Errorf("no room %q in dungeon", p.st.Room)
	}
	return p.advance(room, encNode.LineID())
}

// enterRoom renders a room's narration, fires its events, and advances to
// its first encounter that offers choices.
func (p *play) enterRoom(label string) error {
	room, ok := p.doc.Room(label)
	if !ok {
		return fmt.Errorf("no room %q in dungeon", label)
	}
	p.st.Room = label
	p.st.Encounter = ""
	p.st.MarkVisited(label)

	if room.Body != "" {
		p.say(p.in.Resolve(room.Body, false))
	}
	p.fireEvents(label)

	return p.advance(room, "")
}

// advance plays through the room's encounters after afterEnc (or from the
// top when afterEnc is empty), stopping at the first one that offers the
// player a choice. Running out of encounters ends the run.
func (p *play) advance(room dungeon.RoomNode, afterEnc string) error {
	skipping := afterEnc != ""
	for _, encID := range room.EncounterIDs {
		if skipping {
			if encID == afterEnc {
				skipping = false
			}
			continue
		}

		encNode, ok := p.doc.Encounter(encID)
		if !ok {
			continue
		}
		p.st.Encounter = encNode.LineID()
		p.st.MarkVisited(encNode.LineID())

		enc := runtime.NewEncounter(p.in, &p.doc, encNode, p.st)
		p.say(enc.Narration())
		p.fireEvents(encNode.LineID())

		if len(enc.VisibleChoices()) > 0 {
			return nil
		}
	}

	// nothing left to offer
	p.st.Ended = true
	p.say(logic.Resolved{Output: "The tale ends here."})
	return nil
}

// transition is the scene boundary: the pending delayed actions flush
// exactly once, and whatever room the flush chose loads next. It reports
// whether a move happened.
func (p *play) transition() bool {
	p.nextRoom = ""
	p.disp.FlushDelayed()

	if p.nextRoom == "" {
		return false
	}
	p.st.Room = p.nextRoom
	p.st.Encounter = ""
	return true
}

// fireEvents runs every event parented to the given line id, collecting any
// narration they resolve to.
func (p *play) fireEvents(parentID string) {
	for _, ev := range p.doc.Events(parentID) {
		res, ok := runtime.FireEvent(p.in, ev, p.st)
		if !ok {
			continue
		}
		p.say(res)
	}
}

func (p *play) say(res logic.Resolved) {
	if strings.TrimSpace(res.Output) != "" {
		p.narration = append(p.narration, res.Output)
	}
}

// view renders what the player currently sees. Narration is whatever this
// request's advances produced; on a pure read, it falls back to re-rendering
// the current encounter without executing its actions.
func (p *play) view() ViewModel {
	v := ViewModel{
		Narration: strings.Join(p.narration, "\n\n"),
		Music:     p.st.Music,
		Sounds:    p.st.DrainSounds(),
		Ended:     p.st.Ended,
	}

	if p.st.Ended {
		return v
	}

	encNode, ok := p.doc.Encounter(p.st.Encounter)
	if !ok {
		return v
	}

	if v.Narration == "" {
		v.Narration = p.in.Resolve(encNode.Content, true).Output
	}

	enc := runtime.NewEncounter(p.in, &p.doc, encNode, p.st)
	for i, c := range enc.VisibleChoices() {
		v.Choices = append(v.Choices, ChoiceModel{
			Number:    i + 1,
			Text:      p.choiceText(c),
			Available: c.IsAvailable(),
		})
	}

	return v
}

// choiceText resolves a choice's display text without running its actions,
// falling back to the label when the params carry no prose.
func (p *play) choiceText(c *runtime.Choice) string {
	_, payload := logic.ExtractGuards(c.Node.RawParams)
	if text := p.in.Resolve(payload, true).Output; text != "" {
		return text
	}
	return c.Node.Label
}

// snapshot captures the state for persistence.
func (p *play) snapshot() dao.PlayState {
	ps := dao.PlayState{
		Dungeon:   p.st.CurrentDungeon,
		Room:      p.st.Room,
		Encounter: p.st.Encounter,
		Flags:     make(map[string]map[string]float64),
		Items:     make(map[string]int),
		Music:     p.st.Music,
		Views:     append([]string(nil), p.st.Views...),
		Ended:     p.st.Ended,
	}
	for dungeonID, byName := range p.st.Flags {
		ps.Flags[dungeonID] = make(map[string]float64)
		for name, val := range byName {
			ps.Flags[dungeonID][name] = val
		}
	}
	for lineID := range p.st.Visited {
		ps.Visited = append(ps.Visited, lineID)
	}
	sort.Strings(ps.Visited)
	for itemID, count := range p.st.Items {
		ps.Items[itemID] = count
	}
	return ps
}

// stateFromDAO rehydrates engine state from its persisted form.
func stateFromDAO(ps dao.PlayState) *game.State {
	st := game.NewState(ps.Dungeon)
	st.Room = ps.Room
	st.Encounter = ps.Encounter
	st.Music = ps.Music
	st.Views = append([]string(nil), ps.Views...)
	st.Ended = ps.Ended

	for dungeonID, byName := range ps.Flags {
		st.Flags[dungeonID] = make(map[string]float64)
		for name, val := range byName {
			st.Flags[dungeonID][name] = val
		}
	}
	for _, lineID := range ps.Visited {
		st.Visited[lineID] = true
	}
	for itemID, count := range ps.Items {
		st.Items[itemID] = count
	}

	return st
}
