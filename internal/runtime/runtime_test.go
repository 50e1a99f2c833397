package runtime

import (
	"testing"

	"github.com/ashgrowen/grotto/internal/dungeon"
	"github.com/ashgrowen/grotto/internal/logic"
	"github.com/stretchr/testify/assert"
)

type mapFlags map[string]float64

func (m mapFlags) GetFlag(path string) float64 {
	return m[path]
}

type visitLog struct {
	ids []string
}

func (v *visitLog) MarkVisited(lineID string) {
	v.ids = append(v.ids, lineID)
}

func Test_Choice_State(t *testing.T) {
	testCases := []struct {
		name      string
		rawParams string
		flags     mapFlags
		expect    State
	}{
		{
			name:      "no guards is available",
			rawParams: "{goto: hall}",
			flags:     mapFlags{},
			expect:    StateAvailable,
		},
		{
			name:      "failing if hides",
			rawParams: "if{seen = 1} {goto: hall}",
			flags:     mapFlags{},
			expect:    StateHidden,
		},
		{
			name:      "passing if with failing active is visible only",
			rawParams: "if{seen = 1} active{torch = 1} {goto: hall}",
			flags:     mapFlags{"seen": 1},
			expect:    StateVisible,
		},
		{
			name:      "both guards pass",
			rawParams: "if{seen = 1} active{torch = 1} {goto: hall}",
			flags:     mapFlags{"seen": 1, "torch": 1},
			expect:    StateAvailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			in := logic.New(tc.flags, logic.NewDispatcher(nil))
			c := NewChoice(in, dungeon.ChoiceNode{Label: "c", Parent: "r.e", RawParams: tc.rawParams}, nil)

			assert.Equal(tc.expect, c.State())
		})
	}
}

func Test_Choice_visibilityReactsToFlagChanges(t *testing.T) {
	assert := assert.New(t)

	flags := mapFlags{}
	in := logic.New(flags, logic.NewDispatcher(nil))
	c := NewChoice(in, dungeon.ChoiceNode{Label: "c", Parent: "r.e", RawParams: "if{seen = 1}"}, nil)

	assert.False(c.IsVisible())
	flags["seen"] = 1
	assert.True(c.IsVisible())
}

func Test_Choice_Do(t *testing.T) {
	assert := assert.New(t)

	d := logic.NewDispatcher(nil)
	in := logic.New(mapFlags{"torch": 1}, d)
	var moved string
	d.Register("goto", func(args interface{}) error {
		moved, _ = args.(string)
		return nil
	}, logic.HandlerOptions{})

	visits := &visitLog{}
	node := dungeon.ChoiceNode{Label: "open", Parent: "r.e", RawParams: "active{torch = 1} {goto: vault}"}
	c := NewChoice(in, node, visits)

	res, ok := c.Do()

	assert.True(ok)
	assert.Equal("vault", moved)
	assert.Equal("vault", res.Actions["goto"])
	assert.Equal([]string{"r.e.open"}, visits.ids)
	assert.Equal(StateExecuted, c.State())

	// a second take is a no-op
	_, again := c.Do()
	assert.False(again)
	assert.Len(visits.ids, 1)
}

func Test_Choice_Do_guarded(t *testing.T) {
	assert := assert.New(t)

	d := logic.NewDispatcher(nil)
	in := logic.New(mapFlags{}, d)
	ran := false
	d.Register("goto", func(args interface{}) error {
		ran = true
		return nil
	}, logic.HandlerOptions{})

	c := NewChoice(in, dungeon.ChoiceNode{Label: "c", Parent: "r.e", RawParams: "active{torch = 1} {goto: vault}"}, nil)

	_, ok := c.Do()

	assert.False(ok)
	assert.False(ran, "an unavailable choice must not run its payload")
	assert.Equal(StateVisible, c.State())
}

func Test_Encounter_choiceOrdering(t *testing.T) {
	assert := assert.New(t)

	input := "^r\n@e\npick\n%\n!late\n{goto: a}\n!early\n{goto: b}\n"
	doc, problems := dungeon.Parse(input)
	assert.Empty(problems)

	// order follows the authored list even as visibility changes
	in := logic.New(mapFlags{}, logic.NewDispatcher(nil))
	encNode, ok := doc.Encounter("r.e")
	assert.True(ok)
	e := NewEncounter(in, &doc, encNode, nil)

	labels := []string{}
	for _, c := range e.VisibleChoices() {
		labels = append(labels, c.Node.Label)
	}
	assert.Equal([]string{"late", "early"}, labels)
}

func Test_Encounter_hiddenChoicesFiltered(t *testing.T) {
	assert := assert.New(t)

	input := "^r\n@e\npick\n%\n!always\n!gated if{seen = 1}\n"
	doc, problems := dungeon.Parse(input)
	assert.Empty(problems)

	flags := mapFlags{}
	in := logic.New(flags, logic.NewDispatcher(nil))
	encNode, _ := doc.Encounter("r.e")
	e := NewEncounter(in, &doc, encNode, nil)

	assert.Len(e.VisibleChoices(), 1)
	flags["seen"] = 1
	assert.Len(e.VisibleChoices(), 2)
	assert.Len(e.Choices(), 2)
}

func Test_FireEvent(t *testing.T) {
	assert := assert.New(t)

	d := logic.NewDispatcher(nil)
	in := logic.New(mapFlags{"heard": 1}, d)
	var viewed interface{}
	d.Register("view", func(args interface{}) error {
		viewed = args
		return nil
	}, logic.HandlerOptions{})

	visits := &visitLog{}
	ev := dungeon.EventNode{
		Label:     "shrine",
		Parent:    "r.e",
		Content:   "The shrine glows.",
		RawAction: "{if: heard = 1, view: shrine_art}",
	}

	res, ok := FireEvent(in, ev, visits)

	assert.True(ok)
	assert.Equal("The shrine glows.", res.Output)
	assert.Equal("shrine_art", viewed)
	assert.Equal([]string{"r.e.shrine"}, visits.ids)
}

func Test_FireEvent_gatedOff(t *testing.T) {
	assert := assert.New(t)

	d := logic.NewDispatcher(nil)
	in := logic.New(mapFlags{}, d)
	ran := false
	d.Register("view", func(args interface{}) error {
		ran = true
		return nil
	}, logic.HandlerOptions{})

	ev := dungeon.EventNode{
		Label:     "shrine",
		Parent:    "r.e",
		Content:   "never shown",
		RawAction: "{if: heard = 1, view: shrine_art}",
	}

	_, ok := FireEvent(in, ev, &visitLog{})

	assert.False(ok)
	assert.False(ran)
}
