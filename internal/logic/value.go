package logic

import (
	"regexp"
	"strconv"
	"strings"
)

// ValueType is the type of a value in the micro-language.
type ValueType int

const (
	Str ValueType = iota
	Num
	Bool
)

var numericPat = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Value is a primitive produced by condition evaluation or action-object
// value coercion. It keeps its source text and converts on read.
type Value struct {
	v string
	t ValueType
}

// NewStr creates a string-typed Value.
func NewStr(s string) Value {
	return Value{v: s, t: Str}
}

// NewNum creates a number-typed Value.
func NewNum(n float64) Value {
	return Value{v: strconv.FormatFloat(n, 'f', -1, 64), t: Num}
}

// NewBool creates a bool-typed Value.
func NewBool(b bool) Value {
	return Value{v: strconv.FormatBool(b), t: Bool}
}

// ParseValue types a raw operand string. "true"/"false" become Bool, text
// matching a numeric literal becomes Num, everything else is Str.
func ParseValue(s string) Value {
	switch {
	case s == "true" || s == "false":
		return Value{v: s, t: Bool}
	case numericPat.MatchString(s):
		return Value{v: s, t: Num}
	default:
		return Value{v: s, t: Str}
	}
}

// Type returns the type of the Value.
func (v Value) Type() ValueType {
	return v.t
}

// Bool returns the value as a bool, casting if it is not one. A Num is true
// when nonzero; a Str is true unless empty or "false" in any case.
func (v Value) Bool() bool {
	switch v.t {
	case Bool:
		return v.v == "true"
	case Num:
		return v.Num() != 0
	default:
		return v.v != "" && !strings.EqualFold(v.v, "false")
	}
}

// Num returns the value as a number, casting if it is not one. A Bool is 1
// or 0; a non-numeric Str is 1 when non-empty, else 0.
func (v Value) Num() float64 {
	switch v.t {
	case Bool:
		if v.v == "true" {
			return 1
		}
		return 0
	default:
		n, err := strconv.ParseFloat(v.v, 64)
		if err != nil {
			if v.v == "" {
				return 0
			}
			return 1
		}
		return n
	}
}

// Str returns the value's text form. Numbers keep their literal spelling so
// that "2" and 2 compare equal under string equality.
func (v Value) Str() string {
	return v.v
}

// Equal reports whether v and other hold the same value. When either side is
// a Num both are compared numerically, otherwise their text forms are
// compared.
func (v Value) Equal(other Value) bool {
	if v.t == Num || other.t == Num {
		return v.Num() == other.Num()
	}
	return v.Str() == other.Str()
}

// Less reports whether v orders before other. Ordering is numeric; string
// operands cast through Num.
func (v Value) Less(other Value) bool {
	return v.Num() < other.Num()
}
