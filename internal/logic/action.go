package logic

import (
	"strings"
)

// ParsedAction is one key of an inline action object, ready for dispatch.
// Args is the coerced value: bool, float64, string, or []string.
type ParsedAction struct {
	ID   string
	Args interface{}
}

// Span is a half-open byte range [Start, End) inside the string an action
// object was parsed from, covering the braces themselves. The resolver
// excises spans from visible output.
type Span struct {
	Start int
	End   int
}

// ParseActions finds every brace-balanced {...} region in text and parses
// each into its action records. Brace matching counts depth so values may
// contain nested object-like text, and braces inside quotes do not count.
// An unterminated region is left unparsed; the caller sees no span for it
// and treats the text as literal.
func ParseActions(text string) ([]ParsedAction, []Span) {
	var actions []ParsedAction
	var spans []Span

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := scanBalanced(text, i)
		if end == -1 {
			break
		}
		actions = append(actions, parseRegion(text[i+1:end])...)
		spans = append(spans, Span{Start: i, End: end + 1})
		i = end
	}

	return actions, spans
}

// parseRegion parses the inside of one {...} region into action records.
func parseRegion(body string) []ParsedAction {
	var out []ParsedAction

	for _, pair := range splitTopLevel(body, ',') {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		colon := topLevelIndex(pair, ':')
		if colon == -1 {
			// a lone token is the {actionId} shorthand; a trailing
			// colon-less segment extends the previous value into a list
			if len(out) > 0 {
				if prev := out[len(out)-1]; extendable(prev.Args) {
					out[len(out)-1].Args = extendList(prev.Args, pair)
					continue
				}
			}
			out = append(out, ParsedAction{ID: pair, Args: true})
			continue
		}

		id := strings.TrimSpace(pair[:colon])
		val := strings.TrimSpace(pair[colon+1:])
		if id == "" {
			continue
		}
		out = append(out, ParsedAction{ID: id, Args: coerce(val)})
	}

	return out
}

// coerce types a raw action value the way authors expect: booleans, numbers,
// comma lists, and plain strings. A "!id" removal prefix is a plain string,
// kept verbatim for the handler to interpret.
func coerce(val string) interface{} {
	if val == "" {
		return true
	}
	if len(val) >= 2 {
		if q := val[0]; (q == '"' || q == '\'') && val[len(val)-1] == q {
			return val[1 : len(val)-1]
		}
	}
	if val == "true" {
		return true
	}
	if val == "false" {
		return false
	}
	if numericPat.MatchString(val) {
		return ParseValue(val).Num()
	}
	if strings.Contains(val, ",") {
		parts := strings.Split(val, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		return list
	}
	return val
}

// extendable reports whether an action value can absorb further
// comma-separated ids.
func extendable(args interface{}) bool {
	switch args.(type) {
	case string, []string:
		return true
	}
	return false
}

func extendList(args interface{}, next string) []string {
	switch v := args.(type) {
	case string:
		return []string{v, next}
	case []string:
		return append(v, next)
	}
	return []string{next}
}

// splitTopLevel splits s on sep occurrences at brace depth zero and outside
// quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	last := 0
	for i := 0; i < len(s); i++ {
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
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// topLevelIndex returns the index of the first sep at brace depth zero and
// outside quotes, or -1.
func topLevelIndex(s string, sep byte) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
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
		case sep:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// scanBalanced returns the index of the '}' matching the '{' at open, or -1
// if the region never closes. Braces inside quotes do not affect the depth.
func scanBalanced(s string, open int) int {
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
