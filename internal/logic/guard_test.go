package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ExtractGuards(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectGuards  Guards
		expectPayload string
	}{
		{
			name:          "no guards",
			input:         "{goto: vault}",
			expectGuards:  Guards{},
			expectPayload: "{goto: vault}",
		},
		{
			name:  "visibility guard",
			input: "if{courage > 2} {goto: vault}",
			expectGuards: Guards{
				Visible:    "courage > 2",
				HasVisible: true,
			},
			expectPayload: "{goto: vault}",
		},
		{
			name:  "both guards with or variant",
			input: "ifOr{brave = 1, rash = 1} active{torch = 1} {goto: pit}",
			expectGuards: Guards{
				Visible:      "brave = 1, rash = 1",
				VisibleOr:    true,
				HasVisible:   true,
				Available:    "torch = 1",
				HasAvailable: true,
			},
			expectPayload: "{goto: pit}",
		},
		{
			name:  "guard only",
			input: "active{keys > 0}",
			expectGuards: Guards{
				Available:    "keys > 0",
				HasAvailable: true,
			},
			expectPayload: "",
		},
		{
			name:  "repeated guard keeps the first",
			input: "if{a = 1} if{b = 1}",
			expectGuards: Guards{
				Visible:    "a = 1",
				HasVisible: true,
			},
			expectPayload: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			guards, payload := ExtractGuards(tc.input)

			assert.Equal(tc.expectGuards, guards)
			assert.Equal(tc.expectPayload, payload)
		})
	}
}

func Test_Guards_evaluate(t *testing.T) {
	assert := assert.New(t)

	in := New(mapFlags{"brave": 1}, NewDispatcher(nil))

	g, _ := ExtractGuards("if{brave = 1} active{torch = 1}")
	assert.True(g.VisibleTrue(in))
	assert.False(g.AvailableTrue(in))

	none, _ := ExtractGuards("{goto: hall}")
	assert.True(none.VisibleTrue(in))
	assert.True(none.AvailableTrue(in))
}
