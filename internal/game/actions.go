package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ashgrowen/grotto/internal/logic"
)

// Navigator is the scene-advance surface the built-in actions drive. The
// play loop implements it; goto and end are delayed actions, so these calls
// arrive at scene-transition flush time, never mid-resolution.
type Navigator interface {
	Goto(roomLabel string) error
	End()
}

// RegisterBuiltins wires the built-in action vocabulary against d, mutating
// st and steering nav. This is the composition point that decides which
// actions are delayed and which accumulate.
func RegisterBuiltins(d *logic.Dispatcher, st *State, nav Navigator) {
	d.Register("goto", func(args interface{}) error {
		room, ok := args.(string)
		if !ok || room == "" {
			return fmt.Errorf("goto needs a room label, got %v", args)
		}
		return nav.Goto(room)
	}, logic.HandlerOptions{Delayed: true})

	d.Register("set", func(args interface{}) error {
		for _, spec := range argList(args) {
			if err := applySet(st, spec); err != nil {
				return err
			}
		}
		return nil
	}, logic.HandlerOptions{})

	d.Register("add", func(args interface{}) error {
		spec, ok := args.(string)
		if !ok {
			return fmt.Errorf("add needs a flag and amount, got %v", args)
		}
		fields := strings.Fields(spec)
		if len(fields) != 2 {
			return fmt.Errorf("add needs a flag and amount, got %q", spec)
		}
		delta, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("add amount %q is not a number", fields[1])
		}
		st.AddFlag(fields[0], delta)
		return nil
	}, logic.HandlerOptions{})

	d.Register("give", func(args interface{}) error {
		for _, id := range argList(args) {
			if cut, ok := strings.CutPrefix(id, "!"); ok {
				st.Take(cut, 1)
			} else {
				st.Give(id, 1)
			}
		}
		return nil
	}, logic.HandlerOptions{})

	d.Register("take", func(args interface{}) error {
		for _, id := range argList(args) {
			st.Take(strings.TrimPrefix(id, "!"), 1)
		}
		return nil
	}, logic.HandlerOptions{})

	d.Register("music", func(args interface{}) error {
		track, _ := args.(string)
		st.Music = track
		return nil
	}, logic.HandlerOptions{Delayed: true})

	d.Register("sound", func(args interface{}) error {
		st.Sounds = append(st.Sounds, argList(args)...)
		return nil
	}, logic.HandlerOptions{Accumulates: true})

	d.Register("view", func(args interface{}) error {
		for _, id := range argList(args) {
			if !contains(st.Views, id) {
				st.Views = append(st.Views, id)
			}
		}
		return nil
	}, logic.HandlerOptions{})

	d.Register("end", func(args interface{}) error {
		st.Ended = true
		nav.End()
		return nil
	}, logic.HandlerOptions{Delayed: true})

	// "if" appears as a gating key inside event action objects; by the time
	// actions dispatch it has already been honored, so it is a no-op here
	// rather than an unknown-action warning.
	d.Register("if", func(args interface{}) error {
		return nil
	}, logic.HandlerOptions{})
}

// RegisterConditions extends the condition vocabulary with the predicates
// that read session state rather than flags.
func RegisterConditions(in *logic.Interpreter, st *State) {
	in.RegisterCondition("visited", func(args []string) bool {
		return len(args) == 1 && st.WasVisited(args[0])
	})
	in.RegisterCondition("has", func(args []string) bool {
		return len(args) == 1 && st.Has(args[0])
	})
}

// applySet interprets one set spec: "flag" raises it to 1, "!flag" clears
// it, "flag value" assigns.
func applySet(st *State, spec string) error {
	if cut, ok := strings.CutPrefix(spec, "!"); ok {
		st.SetFlag(strings.TrimSpace(cut), 0)
		return nil
	}
	fields := strings.Fields(spec)
	switch len(fields) {
	case 1:
		st.SetFlag(fields[0], 1)
		return nil
	case 2:
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("set value %q is not a number", fields[1])
		}
		st.SetFlag(fields[0], v)
		return nil
	default:
		return fmt.Errorf("malformed set spec %q", spec)
	}
}

// argList views an action's args as a list of strings regardless of how the
// parser coerced them.
func argList(args interface{}) []string {
	switch v := args.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case bool:
		return nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}
