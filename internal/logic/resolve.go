package logic

import (
	"fmt"
	"strings"
)

// Resolved is the product of one Resolve call. Output is the display text;
// Actions is the flat merge of every inline action object encountered, later
// keys overwriting earlier ones unless the action accumulates into a list.
type Resolved struct {
	Output  string
	Actions map[string]interface{}
}

// block opener keywords, longest first so "ifOr{" is not taken for "if{"
var blockOpeners = []struct {
	kw string
	or bool
}{
	{kw: "activeOr", or: true},
	{kw: "active", or: false},
	{kw: "ifOr", or: true},
	{kw: "if", or: false},
}

const blockClose = "fi{}"

// Resolve walks input left to right in a single pass, expanding conditional
// blocks, substituting |id| placeholders, and extracting inline {...} action
// objects. Constructs are processed strictly in textual order.
//
// A conditional block whose guard is false is fully suppressed: nothing in
// its span is copied, no placeholder inside it runs, and no action inside it
// executes or enqueues. When noExecute is true, actions are still parsed
// into the result's action map and excised from the output, but none are
// routed to the dispatcher.
func (in *Interpreter) Resolve(input string, noExecute bool) Resolved {
	res := Resolved{Actions: make(map[string]interface{})}

	var out strings.Builder
	openBlocks := 0
	excised := false

	for i := 0; i < len(input); {
		// fi{} closes the innermost open block
		if closeAt(input, i) {
			if openBlocks > 0 {
				openBlocks--
			} else {
				in.log.Warn("fi{} with no open conditional block")
			}
			i = in.excise(&out, input, i+len(blockClose))
			excised = true
			continue
		}

		if kwLen, orMode, ok := openerAt(input, i); ok {
			condOpen := i + kwLen
			condClose := scanBalanced(input, condOpen)
			if condClose == -1 {
				in.log.Warn("unterminated conditional block header", "at", i)
				out.WriteByte(input[i])
				i++
				continue
			}
			cond := input[condOpen+1 : condClose]
			if in.evalCondition(cond, orMode) {
				openBlocks++
				i = in.excise(&out, input, condClose+1)
			} else {
				i = in.excise(&out, input, in.skipBlock(input, condClose+1))
			}
			excised = true
			continue
		}

		switch input[i] {
		case '|':
			i = in.placeholder(&out, input, i)
			excised = false
		case '{':
			end := scanBalanced(input, i)
			if end == -1 {
				in.log.Warn("unterminated action object", "at", i)
				out.WriteByte('{')
				i++
				excised = false
				continue
			}
			in.mergeActions(&res, input[i+1:end], noExecute)
			i = in.excise(&out, input, end+1)
			excised = true
		default:
			out.WriteByte(input[i])
			i++
			excised = false
		}
	}

	res.Output = out.String()
	if excised {
		res.Output = strings.TrimRight(res.Output, " \t")
	}
	return res
}

// skipBlock scans forward from just past a false guard's closing brace to
// just past the matching fi{}, counting nested block openers so an inner
// block cannot close the outer one. Action objects in the span are stepped
// over whole, so a quoted fi{} inside an action value is value text, not a
// terminator. Nothing in the span is resolved. If the block never closes the
// rest of the string is suppressed.
func (in *Interpreter) skipBlock(input string, from int) int {
	depth := 1
	for j := from; j < len(input); {
		if closeAt(input, j) {
			depth--
			if depth == 0 {
				return j + len(blockClose)
			}
			j += len(blockClose)
			continue
		}
		if kwLen, _, ok := openerAt(input, j); ok {
			if condClose := scanBalanced(input, j+kwLen); condClose != -1 {
				depth++
				j = condClose + 1
				continue
			}
		}
		if input[j] == '{' {
			if end := scanBalanced(input, j); end != -1 {
				j = end + 1
				continue
			}
		}
		j++
	}
	in.log.Warn("conditional block is missing its fi{}")
	return len(input)
}

// placeholder handles a '|' at position i, returning the position to resume
// from. Unknown ids and unterminated placeholders pass through literally so
// the authoring mistake is visible in the output.
func (in *Interpreter) placeholder(out *strings.Builder, input string, i int) int {
	end := strings.IndexByte(input[i+1:], '|')
	if end == -1 {
		in.log.Warn("unterminated placeholder", "at", i)
		out.WriteByte('|')
		return i + 1
	}
	end += i + 1

	id := input[i+1 : end]
	fn, ok := in.placeholders[id]
	if !ok {
		in.log.Warn("no placeholder registered", "placeholder", id)
		out.WriteString(input[i : end+1])
		return end + 1
	}
	out.WriteString(fn())
	return end + 1
}

// mergeActions parses one action region's body, folds the records into the
// result map, and routes them to the dispatcher unless suppressed.
func (in *Interpreter) mergeActions(res *Resolved, body string, noExecute bool) {
	for _, a := range parseRegion(body) {
		if in.Dispatch != nil && in.Dispatch.Accumulates(a.ID) {
			if prev, ok := res.Actions[a.ID]; ok {
				res.Actions[a.ID] = appendList(prev, a.Args)
			} else {
				res.Actions[a.ID] = a.Args
			}
		} else {
			res.Actions[a.ID] = a.Args
		}
		if !noExecute && in.Dispatch != nil {
			in.Dispatch.Execute(a.ID, a.Args)
		}
	}
}

// excise resumes output at position next after an invisible construct,
// collapsing the doubled whitespace the construct leaves behind.
func (in *Interpreter) excise(out *strings.Builder, input string, next int) int {
	s := out.String()
	if len(s) == 0 || s[len(s)-1] == ' ' || s[len(s)-1] == '\t' {
		for next < len(input) && (input[next] == ' ' || input[next] == '\t') {
			next++
		}
	}
	return next
}

// appendList folds an accumulating action's values into one string list.
func appendList(prev, next interface{}) []string {
	return append(asList(prev), asList(next)...)
}

func asList(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case string:
		return []string{t}
	default:
		return []string{fmt.Sprint(t)}
	}
}

// openerAt reports whether a conditional block opens at position i: one of
// the opener keywords at a word boundary, immediately followed by '{'.
func openerAt(input string, i int) (kwLen int, orMode bool, ok bool) {
	if i > 0 && isWordByte(input[i-1]) {
		return 0, false, false
	}
	for _, op := range blockOpeners {
		end := i + len(op.kw)
		if end < len(input) && input[i:end] == op.kw && input[end] == '{' {
			return len(op.kw), op.or, true
		}
	}
	return 0, false, false
}

// closeAt reports whether the literal fi{} terminator sits at position i.
func closeAt(input string, i int) bool {
	if i > 0 && isWordByte(input[i-1]) {
		return false
	}
	return strings.HasPrefix(input[i:], blockClose)
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
