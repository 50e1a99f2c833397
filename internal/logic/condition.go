package logic

import (
	"strings"
)

// EvalCondition evaluates a guard expression against the flag source and the
// registered condition predicates. It returns false, with a logged warning,
// on any malformed input; a condition can never abort playback.
//
// The grammar is flat. Clauses of the form "path op value" are joined by the
// words "and" or "or"; whichever word appears first sets the combinator for
// the whole expression, and mixing the two is not supported. A clause may be
// negated with a leading '!'. A bare path with no operator is truthy when the
// flag is nonzero. When a clause's left side starts with a registered
// condition id, the predicate is called with the remaining tokens instead of
// reading a flag.
func (in *Interpreter) EvalCondition(expr string) bool {
	return in.evalCondition(expr, false)
}

// evalCondition adds the combinator used for comma-separated clause lists,
// which the ifOr/activeOr block variants join with "or" instead of "and".
func (in *Interpreter) evalCondition(expr string, commaMeansOr bool) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		in.log.Warn("empty condition expression evaluates false")
		return false
	}

	clauses, orJoined := splitClauses(expr, commaMeansOr)

	for _, clause := range clauses {
		ok := in.evalClause(clause)
		if orJoined && ok {
			return true
		}
		if !orJoined && !ok {
			return false
		}
	}
	return !orJoined
}

// splitClauses breaks expr into clauses and reports whether they are
// or-joined. The first combinator word seen wins; any later combinator word,
// matching or not, still splits.
func splitClauses(expr string, commaMeansOr bool) ([]string, bool) {
	tokens := strings.Fields(expr)

	orJoined := false
	sawWord := false
	var clauses []string
	var cur []string
	for _, tok := range tokens {
		if strings.EqualFold(tok, "and") || strings.EqualFold(tok, "or") {
			if !sawWord {
				orJoined = strings.EqualFold(tok, "or")
				sawWord = true
			}
			if len(cur) > 0 {
				clauses = append(clauses, strings.Join(cur, " "))
				cur = nil
			}
			continue
		}
		cur = append(cur, tok)
	}
	if len(cur) > 0 {
		clauses = append(clauses, strings.Join(cur, " "))
	}

	if !sawWord && strings.Contains(expr, ",") {
		clauses = nil
		for _, part := range strings.Split(expr, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				clauses = append(clauses, part)
			}
		}
		orJoined = commaMeansOr
	}

	return clauses, orJoined
}

func (in *Interpreter) evalClause(clause string) bool {
	negated := false
	for strings.HasPrefix(clause, "!") && !strings.HasPrefix(clause, "!=") {
		negated = !negated
		clause = strings.TrimSpace(clause[1:])
	}
	if clause == "" {
		in.log.Warn("condition clause is only negation")
		return false
	}

	op, opAt := findOperator(clause)
	if op == "" {
		return negated != in.truthy(clause)
	}

	left := strings.TrimSpace(clause[:opAt])
	right := strings.TrimSpace(clause[opAt+len(op):])
	if left == "" || right == "" {
		in.log.Warn("condition clause is missing an operand", "clause", clause)
		return false
	}

	lv := in.leftValue(left)
	rv := rightValue(right)

	// a string right side is an equality-only literal compared against the
	// left value's text form
	strEq := func() bool {
		if rv.Type() == Str {
			return lv.Str() == rv.Str()
		}
		return lv.Equal(rv)
	}

	var ok bool
	switch op {
	case "=":
		ok = strEq()
	case "!=":
		ok = !strEq()
	case ">", ">=", "<", "<=":
		if rv.Type() == Str {
			in.log.Warn("ordered comparison against a non-numeric value", "clause", clause)
			return false
		}
		switch op {
		case ">":
			ok = rv.Less(lv)
		case ">=":
			ok = !lv.Less(rv)
		case "<":
			ok = lv.Less(rv)
		case "<=":
			ok = !rv.Less(lv)
		}
	}

	return negated != ok
}

// truthy handles an operator-less clause.
func (in *Interpreter) truthy(clause string) bool {
	fields := strings.Fields(clause)
	if fn, ok := in.conditions[fields[0]]; ok {
		return fn(fields[1:])
	}
	if len(fields) > 1 {
		in.log.Warn("flag path contains spaces", "clause", clause)
		return false
	}
	return in.Flags.GetFlag(fields[0]) != 0
}

// leftValue resolves a clause's left side: a registered condition call or a
// flag path read. Unknown flag paths read as 0 by contract of FlagSource.
func (in *Interpreter) leftValue(left string) Value {
	fields := strings.Fields(left)
	if fn, ok := in.conditions[fields[0]]; ok {
		return NewBool(fn(fields[1:]))
	}
	return NewNum(in.Flags.GetFlag(left))
}

// rightValue types a clause's right side. A quoted operand is always a
// string; anything else goes through the usual literal coercion.
func rightValue(right string) Value {
	if len(right) >= 2 {
		if q := right[0]; (q == '"' || q == '\'') && right[len(right)-1] == q {
			return NewStr(right[1 : len(right)-1])
		}
	}
	return ParseValue(right)
}

// findOperator locates the leftmost comparison operator in clause, checking
// two-character operators before their one-character prefixes.
func findOperator(clause string) (op string, at int) {
	for i := 0; i < len(clause); i++ {
		if i+1 < len(clause) {
			two := clause[i : i+2]
			if two == ">=" || two == "<=" || two == "!=" {
				return two, i
			}
		}
		switch clause[i] {
		case '=', '>', '<':
			return string(clause[i]), i
		}
	}
	return "", -1
}
