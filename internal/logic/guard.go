package logic

import (
	"strings"
)

// Guards are the visibility and availability conditions attached to a
// choice's raw params. A guard written with the Or variant joins its
// comma-separated clauses with "or" instead of "and".
type Guards struct {
	Visible      string
	VisibleOr    bool
	HasVisible   bool
	Available    string
	AvailableOr  bool
	HasAvailable bool
}

// ExtractGuards pulls the if/ifOr and active/activeOr guard headers out of a
// raw params string and returns them alongside the remaining payload text,
// which is typically the choice's action object. Guards in params stand
// alone, with no fi{} terminator. A repeated guard kind keeps the first.
func ExtractGuards(raw string) (Guards, string) {
	var g Guards
	var payload strings.Builder

	for i := 0; i < len(raw); {
		kwLen, orMode, ok := openerAt(raw, i)
		if !ok {
			payload.WriteByte(raw[i])
			i++
			continue
		}
		end := scanBalanced(raw, i+kwLen)
		if end == -1 {
			payload.WriteByte(raw[i])
			i++
			continue
		}

		expr := raw[i+kwLen+1 : end]
		if isActiveKeyword(raw[i : i+kwLen]) {
			if !g.HasAvailable {
				g.Available = expr
				g.AvailableOr = orMode
				g.HasAvailable = true
			}
		} else {
			if !g.HasVisible {
				g.Visible = expr
				g.VisibleOr = orMode
				g.HasVisible = true
			}
		}
		i = end + 1
	}

	return g, strings.TrimSpace(payload.String())
}

// VisibleTrue evaluates the visibility guard against in, true when absent.
func (g Guards) VisibleTrue(in *Interpreter) bool {
	if !g.HasVisible {
		return true
	}
	return in.evalCondition(g.Visible, g.VisibleOr)
}

// AvailableTrue evaluates the availability guard against in, true when
// absent.
func (g Guards) AvailableTrue(in *Interpreter) bool {
	if !g.HasAvailable {
		return true
	}
	return in.evalCondition(g.Available, g.AvailableOr)
}

func isActiveKeyword(kw string) bool {
	return kw == "active" || kw == "activeOr"
}
