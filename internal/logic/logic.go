// Package logic implements the micro-language embedded in dungeon narration.
// It covers the four concerns that turn authored text into play output:
// condition expressions (if{}/ifOr{}/active{}/activeOr{} guards), inline
// action objects ({key: value, ...}), |id| placeholders, and the string
// resolver that walks a snippet left to right applying all three against
// live game state.
//
// Everything here fails soft. A malformed expression evaluates false, an
// unknown placeholder passes through literally, an unknown action is skipped,
// and each such case is logged as a warning so authors can find it. Playback
// never stops because of bad content.
package logic

import (
	"log/slog"
)

// FlagSource provides flag values for condition evaluation. Paths are either
// a bare flag name, read from the current dungeon, or "dungeonId.flagName"
// for cross-dungeon reads. Unknown paths must read as 0, not error.
type FlagSource interface {
	GetFlag(path string) float64
}

// PlaceholderFunc produces the text spliced in for a |id| placeholder.
type PlaceholderFunc func() string

// ConditionFunc is a registered predicate invoked when a condition clause's
// left side names it instead of a flag path. Args are the whitespace-split
// tokens that followed the id in the clause.
type ConditionFunc func(args []string) bool

// Interpreter binds the resolver and evaluator to a flag source, an action
// dispatcher, and the placeholder and condition registries. One Interpreter
// serves one play session; it is not safe for concurrent use.
type Interpreter struct {
	Flags    FlagSource
	Dispatch *Dispatcher

	log          *slog.Logger
	placeholders map[string]PlaceholderFunc
	conditions   map[string]ConditionFunc
}

// New creates an Interpreter reading flags from flags and routing actions
// through d. Warnings go to slog.Default until SetLogger is called.
func New(flags FlagSource, d *Dispatcher) *Interpreter {
	return &Interpreter{
		Flags:        flags,
		Dispatch:     d,
		log:          slog.Default(),
		placeholders: make(map[string]PlaceholderFunc),
		conditions:   make(map[string]ConditionFunc),
	}
}

// SetLogger directs the interpreter's warning output to l.
func (in *Interpreter) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	in.log = l
}

// RegisterPlaceholder makes |id| resolve by calling fn. Registering the same
// id again replaces the earlier function.
func (in *Interpreter) RegisterPlaceholder(id string, fn PlaceholderFunc) {
	in.placeholders[id] = fn
}

// RegisterCondition extends the condition vocabulary with a named predicate.
// A clause whose left side's first token equals id calls fn instead of doing
// a flag comparison.
func (in *Interpreter) RegisterCondition(id string, fn ConditionFunc) {
	in.conditions[id] = fn
}
