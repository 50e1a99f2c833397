package dungeon

// NodeType is the kind of structural node parsed from a dungeon markup line.
type NodeType int

const (
	NodeRoom NodeType = iota
	NodeEncounter
	NodeChoice
	NodeEvent
)

func (nt NodeType) String() string {
	switch nt {
	case NodeRoom:
		return "room"
	case NodeEncounter:
		return "encounter"
	case NodeChoice:
		return "choice"
	case NodeEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Node is a structural node in a parsed dungeon Document.
type Node interface {

	// Type returns the type of the node. This determines which of the As*()
	// functions may be called.
	Type() NodeType

	// LineID returns the fully-qualified ID the node is stored under in its
	// Document.
	LineID() string

	// Returns this node as a RoomNode. Panics if Type() does not return
	// NodeRoom.
	AsRoom() RoomNode

	// Returns this node as an EncounterNode. Panics if Type() does not return
	// NodeEncounter.
	AsEncounter() EncounterNode

	// Returns this node as a ChoiceNode. Panics if Type() does not return
	// NodeChoice.
	AsChoice() ChoiceNode

	// Returns this node as an EventNode. Panics if Type() does not return
	// NodeEvent.
	AsEvent() EventNode
}

// RoomNode is a navigable location created by a '^label' marker line. It owns
// every encounter, choice, and event that follows it up to the next '^'. Any
// identifiers after the label on the marker line are the labels of rooms its
// doors lead to.
type RoomNode struct {
	Label string

	// Body is the raw narration accumulated between the marker line and the
	// first encounter marker. It may contain micro-language constructs and is
	// not resolved at parse time.
	Body string

	// Doors holds the labels of rooms reachable from this one, in marker-line
	// order.
	Doors []string

	// EncounterIDs holds the fully-qualified IDs of the room's encounters in
	// source order.
	EncounterIDs []string

	// Line is the 1-based markup line the marker appeared on.
	Line int
}

func (n RoomNode) Type() NodeType            { return NodeRoom }
func (n RoomNode) LineID() string            { return n.Label }
func (n RoomNode) AsRoom() RoomNode          { return n }
func (n RoomNode) AsEncounter() EncounterNode { panic("Type() is not NodeEncounter") }
func (n RoomNode) AsChoice() ChoiceNode      { panic("Type() is not NodeChoice") }
func (n RoomNode) AsEvent() EventNode        { panic("Type() is not NodeEvent") }

// EncounterNode is an interactive narrative unit created by an '@label'
// marker inside a room. Its fully-qualified ID is "room.label".
type EncounterNode struct {
	Label  string
	Parent string

	// Content is the raw narration accumulated between the marker line and
	// the '%' separator (or the next marker). Resolved lazily at play time.
	Content string

	// ChoiceIDs holds the fully-qualified IDs of the encounter's choices in
	// the order they were listed after '%'.
	ChoiceIDs []string

	Line int
}

func (n EncounterNode) Type() NodeType             { return NodeEncounter }
func (n EncounterNode) LineID() string             { return n.Parent + "." + n.Label }
func (n EncounterNode) AsRoom() RoomNode           { panic("Type() is not NodeRoom") }
func (n EncounterNode) AsEncounter() EncounterNode { return n }
func (n EncounterNode) AsChoice() ChoiceNode       { panic("Type() is not NodeChoice") }
func (n EncounterNode) AsEvent() EventNode         { panic("Type() is not NodeEvent") }

// ChoiceNode is a selectable option created by '!label' or by the bare
// numbered shorthand inside an encounter's choice list. RawParams is the
// unparsed remainder of the line: guard constructs, display text, and inline
// action objects, resolved lazily every time the choice is shown or taken.
type ChoiceNode struct {
	Label  string
	Parent string

	RawParams string

	// Order is the position of the choice within its encounter's list,
	// starting at 1. For the numbered shorthand it is the number the author
	// wrote.
	Order int

	Line int
}

func (n ChoiceNode) Type() NodeType             { return NodeChoice }
func (n ChoiceNode) LineID() string             { return n.Parent + "." + n.Label }
func (n ChoiceNode) AsRoom() RoomNode           { panic("Type() is not NodeRoom") }
func (n ChoiceNode) AsEncounter() EncounterNode { panic("Type() is not NodeEncounter") }
func (n ChoiceNode) AsChoice() ChoiceNode       { return n }
func (n ChoiceNode) AsEvent() EventNode         { panic("Type() is not NodeEvent") }

// EventNode is a named content unit created by a '#label' marker, optionally
// carrying an action-object literal suffix ('#label{view: gallery3}'). The
// suffix is captured verbatim and not evaluated until the event fires at play
// time.
type EventNode struct {
	Label  string
	Parent string

	// Content is the raw narration accumulated under the marker, if any.
	Content string

	// RawAction is the '{...}' literal from the marker line, braces included,
	// or "" if the marker had none.
	RawAction string

	Line int
}

func (n EventNode) Type() NodeType             { return NodeEvent }
func (n EventNode) LineID() string             { return n.Parent + "." + n.Label }
func (n EventNode) AsRoom() RoomNode           { panic("Type() is not NodeRoom") }
func (n EventNode) AsEncounter() EncounterNode { panic("Type() is not NodeEncounter") }
func (n EventNode) AsChoice() ChoiceNode       { panic("Type() is not NodeChoice") }
func (n EventNode) AsEvent() EventNode         { return n }
