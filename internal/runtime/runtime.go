// Package runtime wraps parsed dungeon nodes with live play state. A parsed
// choice is inert data; a runtime Choice knows whether it is currently
// visible and available under the game's flags, and runs its action payload
// when taken. Visibility and availability are recomputed on every read
// rather than cached, since any flag mutation can change them.
package runtime

import (
	"sort"

	"github.com/ashgrowen/grotto/internal/dungeon"
	"github.com/ashgrowen/grotto/internal/logic"
)

// State is where a choice sits in its lifecycle. A choice is Hidden until
// its visibility guard passes, Visible but inert until its availability
// guard passes, and Executed once taken.
type State int

const (
	StateHidden State = iota
	StateVisible
	StateAvailable
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "HIDDEN"
	case StateVisible:
		return "VISIBLE"
	case StateAvailable:
		return "AVAILABLE"
	case StateExecuted:
		return "EXECUTED"
	default:
		return "UNKNOWN"
	}
}

// VisitRecorder is the external store that remembers which choices and
// encounters the player has taken. Visited state never lives on the parsed
// document.
type VisitRecorder interface {
	MarkVisited(lineID string)
}

// ComputeVisible evaluates the visibility guard embedded in a raw params
// string. Params with no if/ifOr guard are always visible.
func ComputeVisible(in *logic.Interpreter, rawParams string) bool {
	g, _ := logic.ExtractGuards(rawParams)
	return g.VisibleTrue(in)
}

// ComputeAvailable evaluates the availability guard embedded in a raw params
// string. Params with no active/activeOr guard are always available.
func ComputeAvailable(in *logic.Interpreter, rawParams string) bool {
	g, _ := logic.ExtractGuards(rawParams)
	return g.AvailableTrue(in)
}

// Choice binds one parsed choice node to the interpreter it is judged and
// executed against.
type Choice struct {
	Node dungeon.ChoiceNode

	in       *logic.Interpreter
	visits   VisitRecorder
	executed bool
}

// NewChoice wraps node for play against in. visits may be nil when nothing
// records history, as in previews.
func NewChoice(in *logic.Interpreter, node dungeon.ChoiceNode, visits VisitRecorder) *Choice {
	return &Choice{Node: node, in: in, visits: visits}
}

// IsVisible reports whether the choice should be shown at all right now.
func (c *Choice) IsVisible() bool {
	return ComputeVisible(c.in, c.Node.RawParams)
}

// IsAvailable reports whether the choice can be taken right now. A choice
// can be visible, shown grayed out, yet unavailable.
func (c *Choice) IsAvailable() bool {
	return ComputeAvailable(c.in, c.Node.RawParams)
}

// State derives the current lifecycle state from the guards and execution
// history.
func (c *Choice) State() State {
	if c.executed {
		return StateExecuted
	}
	if !c.IsVisible() {
		return StateHidden
	}
	if !c.IsAvailable() {
		return StateVisible
	}
	return StateAvailable
}

// Do takes the choice. It is a guarded no-op, returning false, unless the
// choice is currently available. Otherwise the action payload of the
// choice's params runs with side effects on, the choice is recorded as
// visited, and the resolution is returned.
func (c *Choice) Do() (logic.Resolved, bool) {
	if c.State() != StateAvailable {
		return logic.Resolved{}, false
	}

	_, payload := logic.ExtractGuards(c.Node.RawParams)
	res := c.in.Resolve(payload, false)

	if c.visits != nil {
		c.visits.MarkVisited(c.Node.LineID())
	}
	c.executed = true
	return res, true
}

// Encounter binds a parsed encounter to the interpreter and exposes its
// narration and choice list as the player should see them now.
type Encounter struct {
	Node dungeon.EncounterNode

	doc    *dungeon.Document
	in     *logic.Interpreter
	visits VisitRecorder

	choices []*Choice
}

// NewEncounter wraps node, drawing its choices from doc.
func NewEncounter(in *logic.Interpreter, doc *dungeon.Document, node dungeon.EncounterNode, visits VisitRecorder) *Encounter {
	e := &Encounter{Node: node, doc: doc, in: in, visits: visits}
	for _, id := range node.ChoiceIDs {
		ch, ok := doc.Choice(id)
		if !ok {
			continue
		}
		e.choices = append(e.choices, NewChoice(in, ch, visits))
	}
	sort.SliceStable(e.choices, func(i, j int) bool {
		return e.choices[i].Node.Order < e.choices[j].Node.Order
	})
	return e
}

// Narration resolves the encounter's content with side effects on. Inline
// actions in narration run as the text is shown.
func (e *Encounter) Narration() logic.Resolved {
	return e.in.Resolve(e.Node.Content, false)
}

// Choices returns every wrapped choice in presentation order.
func (e *Encounter) Choices() []*Choice {
	return e.choices
}

// VisibleChoices returns the choices to present right now, in order.
func (e *Encounter) VisibleChoices() []*Choice {
	var out []*Choice
	for _, c := range e.choices {
		if c.IsVisible() {
			out = append(out, c)
		}
	}
	return out
}

// FireEvent runs a parsed event: its action object's "if" key, when present
// with a condition value, gates the whole event. On a passing gate the
// event's content resolves with side effects on, the remaining action keys
// execute, and the combined resolution is returned with ok true.
func FireEvent(in *logic.Interpreter, ev dungeon.EventNode, visits VisitRecorder) (logic.Resolved, bool) {
	var acts []logic.ParsedAction
	if ev.RawAction != "" {
		acts, _ = logic.ParseActions(ev.RawAction)
		for _, a := range acts {
			if a.ID != "if" {
				continue
			}
			if cond, ok := a.Args.(string); ok && !in.EvalCondition(cond) {
				return logic.Resolved{}, false
			}
		}
	}

	res := in.Resolve(ev.Content, false)
	if res.Actions == nil {
		res.Actions = make(map[string]interface{})
	}
	for _, a := range acts {
		if a.ID == "if" {
			continue
		}
		res.Actions[a.ID] = a.Args
		if in.Dispatch != nil {
			in.Dispatch.Execute(a.ID, a.Args)
		}
	}

	if visits != nil {
		visits.MarkVisited(ev.LineID())
	}
	return res, true
}
