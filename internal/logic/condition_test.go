package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// mapFlags is the test FlagSource. Missing paths read as 0.
type mapFlags map[string]float64

func (m mapFlags) GetFlag(path string) float64 {
	return m[path]
}

func Test_EvalCondition(t *testing.T) {
	flags := mapFlags{
		"courage":      3,
		"torches":      0,
		"crypt.sealed": 1,
		"gold":         12.5,
	}

	testCases := []struct {
		name   string
		expr   string
		expect bool
	}{
		{name: "equality true", expr: "courage = 3", expect: true},
		{name: "equality false", expr: "courage = 4", expect: false},
		{name: "inequality", expr: "courage != 4", expect: true},
		{name: "greater than", expr: "courage > 2", expect: true},
		{name: "greater or equal at boundary", expr: "courage >= 3", expect: true},
		{name: "less than", expr: "courage < 2", expect: false},
		{name: "less or equal", expr: "gold <= 12.5", expect: true},
		{name: "float literal", expr: "gold > 12", expect: true},
		{name: "no spaces around operator", expr: "courage>2", expect: true},
		{name: "bare flag truthy", expr: "courage", expect: true},
		{name: "bare zero flag", expr: "torches", expect: false},
		{name: "negated bare flag", expr: "!torches", expect: true},
		{name: "negated comparison", expr: "!courage = 3", expect: false},
		{name: "cross dungeon path", expr: "crypt.sealed = 1", expect: true},
		{name: "unknown flag reads as zero", expr: "mystery = 0", expect: true},
		{name: "unknown flag fails closed", expr: "mystery > 0", expect: false},
		{name: "and requires all", expr: "courage > 2 and torches = 0", expect: true},
		{name: "and fails on one", expr: "courage > 2 and torches = 1", expect: false},
		{name: "or needs one", expr: "courage > 5 or torches = 0", expect: true},
		{name: "or with none", expr: "courage > 5 or torches = 1", expect: false},
		{name: "first seen combinator wins", expr: "courage > 5 or torches = 0 and courage = 0", expect: true},
		{name: "string equality against flag text", expr: "courage = '3'", expect: true},
		{name: "string literal mismatch", expr: "courage = north", expect: false},
		{name: "ordered comparison on string is false", expr: "courage > north", expect: false},
		{name: "empty expression", expr: "", expect: false},
		{name: "missing right operand", expr: "courage =", expect: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			in := New(flags, NewDispatcher(nil))

			actual := in.EvalCondition(tc.expr)

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_EvalCondition_registeredConditions(t *testing.T) {
	assert := assert.New(t)

	in := New(mapFlags{}, NewDispatcher(nil))
	var gotArgs []string
	in.RegisterCondition("carrying", func(args []string) bool {
		gotArgs = args
		return len(args) == 1 && args[0] == "lantern"
	})

	assert.True(in.EvalCondition("carrying lantern"))
	assert.Equal([]string{"lantern"}, gotArgs)
	assert.False(in.EvalCondition("carrying rope"))
	assert.True(in.EvalCondition("!carrying rope"))

	// predicates also work as a comparison's left side
	assert.True(in.EvalCondition("carrying lantern = true"))
	assert.True(in.EvalCondition("carrying rope = false"))
}

func Test_EvalCondition_commaClauses(t *testing.T) {
	assert := assert.New(t)

	in := New(mapFlags{"a": 1, "b": 0}, NewDispatcher(nil))

	// comma-joined clauses follow the block variant that carried them
	assert.False(in.evalCondition("a = 1, b = 1", false))
	assert.True(in.evalCondition("a = 1, b = 1", true))
	assert.False(in.evalCondition("a = 2, b = 2", true))
}
