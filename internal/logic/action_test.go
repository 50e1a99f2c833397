package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseActions(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectActions []ParsedAction
		expectSpans   []Span
	}{
		{
			name:          "no regions",
			input:         "plain text",
			expectActions: nil,
			expectSpans:   nil,
		},
		{
			name:          "single pair",
			input:         "{goto: vault}",
			expectActions: []ParsedAction{{ID: "goto", Args: "vault"}},
			expectSpans:   []Span{{Start: 0, End: 13}},
		},
		{
			name:  "multiple pairs",
			input: "{goto: vault, set: opened}",
			expectActions: []ParsedAction{
				{ID: "goto", Args: "vault"},
				{ID: "set", Args: "opened"},
			},
			expectSpans: []Span{{Start: 0, End: 26}},
		},
		{
			name:          "shorthand id",
			input:         "{end}",
			expectActions: []ParsedAction{{ID: "end", Args: true}},
			expectSpans:   []Span{{Start: 0, End: 5}},
		},
		{
			name:          "boolean value",
			input:         "{view: false}",
			expectActions: []ParsedAction{{ID: "view", Args: false}},
			expectSpans:   []Span{{Start: 0, End: 13}},
		},
		{
			name:          "numeric value",
			input:         "{add: 2.5}",
			expectActions: []ParsedAction{{ID: "add", Args: 2.5}},
			expectSpans:   []Span{{Start: 0, End: 10}},
		},
		{
			name:          "comma list value",
			input:         "{sound: thud,creak}",
			expectActions: []ParsedAction{{ID: "sound", Args: []string{"thud", "creak"}}},
			expectSpans:   []Span{{Start: 0, End: 19}},
		},
		{
			name:          "spaced list folds into previous value",
			input:         "{sound: thud, creak}",
			expectActions: []ParsedAction{{ID: "sound", Args: []string{"thud", "creak"}}},
			expectSpans:   []Span{{Start: 0, End: 20}},
		},
		{
			name:          "removal prefix kept verbatim",
			input:         "{take: !lantern}",
			expectActions: []ParsedAction{{ID: "take", Args: "!lantern"}},
			expectSpans:   []Span{{Start: 0, End: 16}},
		},
		{
			name:          "quoted value skips coercion",
			input:         "{say: '12'}",
			expectActions: []ParsedAction{{ID: "say", Args: "12"}},
			expectSpans:   []Span{{Start: 0, End: 11}},
		},
		{
			name:          "nested braces in value",
			input:         "{view: {gallery: 3}}",
			expectActions: []ParsedAction{{ID: "view", Args: "{gallery: 3}"}},
			expectSpans:   []Span{{Start: 0, End: 20}},
		},
		{
			name:  "two regions with surrounding text",
			input: "go {music: dirge} then {end}",
			expectActions: []ParsedAction{
				{ID: "music", Args: "dirge"},
				{ID: "end", Args: true},
			},
			expectSpans: []Span{{Start: 3, End: 17}, {Start: 23, End: 28}},
		},
		{
			name:          "comma inside quotes is not a split",
			input:         "{say: 'one, two'}",
			expectActions: []ParsedAction{{ID: "say", Args: "one, two"}},
			expectSpans:   []Span{{Start: 0, End: 17}},
		},
		{
			name:          "unterminated region is ignored",
			input:         "{goto: nowhere",
			expectActions: nil,
			expectSpans:   nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actions, spans := ParseActions(tc.input)

			assert.Equal(tc.expectActions, actions)
			assert.Equal(tc.expectSpans, spans)
		})
	}
}
