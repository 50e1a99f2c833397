package dungeon

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Parse scans raw dungeon markup and builds a Document from it. It is a pure
// function of its input; no I/O is performed.
//
// Parsing never fails outright. Anything wrong with the markup (duplicate
// labels, markers outside their expected nesting, unterminated action
// objects) is collected as a Problem and the rest of the text is still
// parsed, so a broken dungeon loads partially rather than not at all.
//
// Markers are recognized purely lexically, at column 0 only. A '^' somewhere
// inside an encounter's narration is narration; it never opens a room.
func Parse(raw string) (Document, []Problem) {
	p := &parser{}

	// content arrives from authors on several platforms; normalize so that
	// flag names and labels compare byte-wise later.
	raw = norm.NFC.String(raw)
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	for i, line := range strings.Split(raw, "\n") {
		p.line = i + 1
		p.scanLine(line)
	}
	p.flushRoom()

	SortProblems(p.problems)
	return p.doc, p.problems
}

// parser holds the single pass's accumulation state. Exactly one of curEnc
// and inChoices being set decides where a plain content line lands; curEvent,
// when set, takes priority over both.
type parser struct {
	doc      Document
	problems []Problem
	line     int

	curRoom   *RoomNode
	roomBody  []string
	curEnc    *EncounterNode
	encBody   []string
	inChoices bool
	curEvent  *EventNode
	eventBody []string

	// lastChoice is the line ID of the most recently added choice, so that a
	// following '{...}' block line can be attached to it as its params.
	lastChoice string
}

func (p *parser) errf(format string, a ...interface{}) {
	p.problems = append(p.problems, Problem{Line: p.line, Message: fmt.Sprintf(format, a...)})
}

func (p *parser) scanLine(line string) {
	if strings.TrimSpace(line) == "" {
		// blank lines are preserved inside narration but never produce
		// structure on their own
		p.appendContent("")
		return
	}

	switch line[0] {
	case '^':
		p.openRoom(line)
	case '@':
		p.openEncounter(line)
	case '%':
		p.beginChoices(line)
	case '!':
		p.addChoice(line[1:], 0)
	case '#':
		p.addEvent(line)
	default:
		if p.inChoices {
			p.choiceListLine(line)
			return
		}
		p.appendContent(line)
	}
}

func (p *parser) openRoom(line string) {
	p.flushRoom()

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		p.errf("room marker '^' has no label")
		return
	}

	room := &RoomNode{
		Label: fields[0],
		Doors: fields[1:],
		Line:  p.line,
	}
	if _, taken := p.doc.Get(room.Label); taken {
		p.errf("room label %q is already in use", room.Label)
		return
	}
	p.curRoom = room
}

func (p *parser) openEncounter(line string) {
	p.flushEncounter()
	p.flushEvent()

	if p.curRoom == nil {
		p.errf("encounter marker '@' outside of any room")
		return
	}

	label := strings.TrimSpace(line[1:])
	if label == "" {
		p.errf("encounter marker '@' has no label")
		return
	}

	enc := &EncounterNode{
		Label:  label,
		Parent: p.curRoom.Label,
		Line:   p.line,
	}
	if _, taken := p.doc.Get(enc.LineID()); taken {
		p.errf("encounter label %q is already in use in room %q", label, p.curRoom.Label)
		return
	}
	p.curEnc = enc
	p.inChoices = false
}

func (p *parser) beginChoices(line string) {
	p.flushEvent()
	if strings.TrimSpace(line) != "%" {
		p.errf("separator '%%' must be alone on its line")
		return
	}
	if p.curEnc == nil {
		p.errf("separator '%%' outside of any encounter")
		return
	}
	p.curEnc.Content = joinBody(p.encBody)
	p.encBody = nil
	p.inChoices = true
}

// addChoice parses a choice from the text after the '!' marker, or from a
// whole numbered-shorthand line when order > 0.
func (p *parser) addChoice(rest string, order int) {
	p.flushEvent()

	if p.curEnc == nil {
		p.errf("choice outside of any encounter")
		return
	}

	label, params := splitMarkerRest(rest)
	if label == "" {
		p.errf("choice marker has no label")
		return
	}
	if order == 0 {
		order = len(p.curEnc.ChoiceIDs) + 1
	}

	ch := ChoiceNode{
		Label:     label,
		Parent:    p.curEnc.LineID(),
		RawParams: params,
		Order:     order,
		Line:      p.line,
	}
	if err := p.doc.add(ch.LineID(), ch); err != nil {
		p.errf("choice %q: %v", label, err)
		return
	}
	p.curEnc.ChoiceIDs = append(p.curEnc.ChoiceIDs, ch.LineID())
	p.lastChoice = ch.LineID()
}

// choiceListLine handles a non-marker line inside an encounter's choice list.
// A bare leading integer is the numbered-choice shorthand; a '{' line is a
// params block for the choice above it.
func (p *parser) choiceListLine(line string) {
	if line[0] == '{' {
		p.attachParams(line)
		return
	}

	first, rest := splitMarkerRest(line)
	if n, err := strconv.Atoi(first); err == nil && n > 0 {
		p.addChoice(line, n)
		return
	}
	_ = rest
	p.errf("expected a choice in the list after '%%', got %q", line)
}

// attachParams attaches a standalone '{...}' block line to the choice that
// precedes it.
func (p *parser) attachParams(line string) {
	if p.lastChoice == "" {
		p.errf("params block with no choice to attach to")
		return
	}
	n, _ := p.doc.Get(p.lastChoice)
	ch := n.AsChoice()
	if ch.RawParams != "" {
		ch.RawParams += " "
	}
	ch.RawParams += strings.TrimSpace(line)
	p.doc.nodes[p.lastChoice] = ch
}

func (p *parser) addEvent(line string) {
	p.flushEvent()

	rest := line[1:]
	var raw string
	if braceAt := strings.IndexByte(rest, '{'); braceAt != -1 {
		end := matchingBrace(rest, braceAt)
		if end == -1 {
			p.errf("unterminated '{' in event marker")
			end = len(rest) - 1
		}
		raw = rest[braceAt : end+1]
		rest = rest[:braceAt]
	}

	label := strings.TrimSpace(rest)
	if label == "" {
		p.errf("event marker '#' has no label")
		return
	}

	var parent string
	switch {
	case p.curEnc != nil && !p.inChoices:
		parent = p.curEnc.LineID()
	case p.curRoom != nil:
		parent = p.curRoom.Label
	default:
		p.errf("event marker '#' outside of any room")
		return
	}

	p.curEvent = &EventNode{
		Label:     label,
		Parent:    parent,
		RawAction: raw,
		Line:      p.line,
	}
	if _, taken := p.doc.Get(p.curEvent.LineID()); taken {
		p.errf("event label %q is already in use under %q", label, parent)
		p.curEvent = nil
	}
}

// appendContent routes a plain narration line to whichever node is currently
// accumulating: an open event, an open encounter, or the room body.
func (p *parser) appendContent(line string) {
	switch {
	case p.curEvent != nil:
		p.eventBody = append(p.eventBody, line)
	case p.curEnc != nil && !p.inChoices:
		p.encBody = append(p.encBody, line)
	case p.curRoom != nil:
		p.roomBody = append(p.roomBody, line)
	default:
		if line != "" {
			p.errf("content outside of any room")
		}
	}
}

func (p *parser) flushEvent() {
	if p.curEvent == nil {
		p.eventBody = nil
		return
	}
	ev := *p.curEvent
	ev.Content = joinBody(p.eventBody)
	if err := p.doc.add(ev.LineID(), ev); err != nil {
		p.errf("event %q: %v", ev.Label, err)
	}
	p.curEvent = nil
	p.eventBody = nil
}

func (p *parser) flushEncounter() {
	p.flushEvent()
	if p.curEnc == nil {
		p.encBody = nil
		p.inChoices = false
		return
	}
	enc := *p.curEnc
	if !p.inChoices {
		enc.Content = joinBody(p.encBody)
	}
	if err := p.doc.add(enc.LineID(), enc); err != nil {
		p.errf("encounter %q: %v", enc.Label, err)
	} else if p.curRoom != nil {
		p.curRoom.EncounterIDs = append(p.curRoom.EncounterIDs, enc.LineID())
	}
	p.curEnc = nil
	p.encBody = nil
	p.inChoices = false
	p.lastChoice = ""
}

func (p *parser) flushRoom() {
	p.flushEncounter()
	if p.curRoom == nil {
		p.roomBody = nil
		return
	}
	room := *p.curRoom
	room.Body = joinBody(p.roomBody)
	if err := p.doc.add(room.Label, room); err != nil {
		p.errf("room %q: %v", room.Label, err)
	}
	p.curRoom = nil
	p.roomBody = nil
}

// joinBody joins accumulated narration lines, dropping the blank padding that
// authors leave around markers.
func joinBody(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// splitMarkerRest splits a marker line's remainder into its leading label and
// everything after it. The label ends at the first whitespace or '{'.
func splitMarkerRest(rest string) (label, params string) {
	rest = strings.TrimSpace(rest)
	end := len(rest)
	for i, ch := range rest {
		if ch == ' ' || ch == '\t' || ch == '{' {
			end = i
			break
		}
	}
	return rest[:end], strings.TrimSpace(rest[end:])
}

// matchingBrace returns the index in s of the '}' matching the '{' at open,
// or -1 if the braces never balance. Braces inside single or double quotes do
// not count toward the balance.
func matchingBrace(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
