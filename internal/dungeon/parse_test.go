package dungeon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Parse_structure(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expectIDs []string
	}{
		{
			name:      "single empty room",
			input:     "^cellar\n",
			expectIDs: []string{"cellar"},
		},
		{
			name:      "room with encounter and choice",
			input:     "^r1\n@e1\ncontent\n%\n!c1\n",
			expectIDs: []string{"r1.e1.c1", "r1.e1", "r1"},
		},
		{
			name:      "marker with no body at EOF still yields a node",
			input:     "^r1\n@e1",
			expectIDs: []string{"r1.e1", "r1"},
		},
		{
			name:      "two rooms",
			input:     "^hall north south\nA hall.\n^crypt\nDust.\n",
			expectIDs: []string{"hall", "crypt"},
		},
		{
			name:      "event under encounter",
			input:     "^r1\n@e1\nwords\n#boom{goto: crypt}\n",
			expectIDs: []string{"r1.e1.boom", "r1.e1", "r1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			doc, problems := Parse(tc.input)

			assert.Empty(problems)
			for _, id := range tc.expectIDs {
				_, ok := doc.Get(id)
				assert.True(ok, "missing node %q", id)
			}
			assert.Len(doc.IDs(), len(tc.expectIDs))
		})
	}
}

func Test_Parse_roomFields(t *testing.T) {
	assert := assert.New(t)

	doc, problems := Parse("^hall north south\nA long hall.\nTorches gutter.\n")

	assert.Empty(problems)
	room, ok := doc.Room("hall")
	assert.True(ok)
	assert.Equal("hall", room.Label)
	assert.Equal([]string{"north", "south"}, room.Doors)
	assert.Equal("A long hall.\nTorches gutter.", room.Body)
	assert.Equal(1, room.Line)
}

func Test_Parse_encounterAndChoices(t *testing.T) {
	assert := assert.New(t)

	input := "^r1\n@fight\nA ghoul lunges.\n%\n!run if{courage < 2}\n!swing\n"
	doc, problems := Parse(input)

	assert.Empty(problems)

	enc, ok := doc.Encounter("r1.fight")
	assert.True(ok)
	assert.Equal("A ghoul lunges.", enc.Content)
	assert.Equal([]string{"r1.fight.run", "r1.fight.swing"}, enc.ChoiceIDs)

	run, ok := doc.Choice("r1.fight.run")
	assert.True(ok)
	assert.Equal("if{courage < 2}", run.RawParams)
	assert.Equal(1, run.Order)

	swing, ok := doc.Choice("r1.fight.swing")
	assert.True(ok)
	assert.Equal("", swing.RawParams)
	assert.Equal(2, swing.Order)

	room, _ := doc.Room("r1")
	assert.Equal([]string{"r1.fight"}, room.EncounterIDs)
}

func Test_Parse_numberedChoiceShorthand(t *testing.T) {
	assert := assert.New(t)

	input := "^r1\n@e1\npick one\n%\n1 {goto: crypt}\n2\n"
	doc, problems := Parse(input)

	assert.Empty(problems)

	one, ok := doc.Choice("r1.e1.1")
	assert.True(ok)
	assert.Equal(1, one.Order)
	assert.Equal("{goto: crypt}", one.RawParams)

	two, ok := doc.Choice("r1.e1.2")
	assert.True(ok)
	assert.Equal(2, two.Order)
}

func Test_Parse_paramsBlockOnFollowingLine(t *testing.T) {
	assert := assert.New(t)

	input := "^r1\n@e1\n%\n!open\n{goto: vault, set: opened}\n"
	doc, problems := Parse(input)

	assert.Empty(problems)
	ch, ok := doc.Choice("r1.e1.open")
	assert.True(ok)
	assert.Equal("{goto: vault, set: opened}", ch.RawParams)
}

func Test_Parse_events(t *testing.T) {
	testCases := []struct {
		name         string
		input        string
		expectID     string
		expectParent string
		expectRaw    string
		expectBody   string
	}{
		{
			name:         "event with action object",
			input:        "^r1\n@e1\n#boom{sound: thud, set: heard}\nThe door slams.\n",
			expectID:     "r1.e1.boom",
			expectParent: "r1.e1",
			expectRaw:    "{sound: thud, set: heard}",
			expectBody:   "The door slams.",
		},
		{
			name:         "event without action",
			input:        "^r1\n#arrive\nYou step inside.\n",
			expectID:     "r1.arrive",
			expectParent: "r1",
			expectRaw:    "",
			expectBody:   "You step inside.",
		},
		{
			name:         "nested braces kept verbatim",
			input:        "^r1\n#x{if{seen = 1}, goto: out}\n",
			expectID:     "r1.x",
			expectParent: "r1",
			expectRaw:    "{if{seen = 1}, goto: out}",
			expectBody:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			doc, problems := Parse(tc.input)

			assert.Empty(problems)
			ev, ok := doc.Get(tc.expectID)
			if !assert.True(ok, "missing event %q", tc.expectID) {
				return
			}
			event := ev.AsEvent()
			assert.Equal(tc.expectParent, event.Parent)
			assert.Equal(tc.expectRaw, event.RawAction)
			assert.Equal(tc.expectBody, event.Content)
		})
	}
}

func Test_Parse_markersNotAtColumnZeroAreContent(t *testing.T) {
	assert := assert.New(t)

	input := "^r1\n@e1\nThe sign reads:\n \"^up @down !sideways\"\n"
	doc, problems := Parse(input)

	assert.Empty(problems)
	enc, ok := doc.Encounter("r1.e1")
	assert.True(ok)
	assert.Contains(enc.Content, "^up @down !sideways")
	assert.Len(doc.IDs(), 2)
}

func Test_Parse_problems(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		expectLine int
		expectMsg  string
	}{
		{
			name:       "duplicate room label",
			input:      "^hall\n^hall\n",
			expectLine: 2,
			expectMsg:  "already in use",
		},
		{
			name:       "duplicate choice label",
			input:      "^r\n@e\n%\n!go\n!go\n",
			expectLine: 5,
			expectMsg:  "already in use",
		},
		{
			name:       "encounter outside room",
			input:      "@stray\n",
			expectLine: 1,
			expectMsg:  "outside of any room",
		},
		{
			name:       "choice outside encounter",
			input:      "^r\n!stray\n",
			expectLine: 2,
			expectMsg:  "outside of any encounter",
		},
		{
			name:       "separator outside encounter",
			input:      "^r\n%\n",
			expectLine: 2,
			expectMsg:  "outside of any encounter",
		},
		{
			name:       "unterminated event action",
			input:      "^r\n#ev{goto: nowhere\n",
			expectLine: 2,
			expectMsg:  "unterminated",
		},
		{
			name:       "content before any room",
			input:      "lost words\n^r\n",
			expectLine: 1,
			expectMsg:  "content outside",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, problems := Parse(tc.input)

			if !assert.NotEmpty(problems) {
				return
			}
			assert.Equal(tc.expectLine, problems[0].Line)
			assert.Contains(problems[0].Message, tc.expectMsg)
		})
	}
}

func Test_Parse_problemsDoNotAbort(t *testing.T) {
	assert := assert.New(t)

	// the duplicate encounter is dropped but the room and the later
	// encounter still load
	input := "^r\n@e\nfirst\n@e\nsecond\n@f\nthird\n"
	doc, problems := Parse(input)

	assert.NotEmpty(problems)
	_, ok := doc.Room("r")
	assert.True(ok)
	_, ok = doc.Encounter("r.e")
	assert.True(ok)
	f, ok := doc.Encounter("r.f")
	assert.True(ok)
	assert.Equal("third", f.Content)
}
