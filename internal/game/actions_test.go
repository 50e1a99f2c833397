package game

import (
	"testing"

	"github.com/ashgrowen/grotto/internal/logic"
	"github.com/stretchr/testify/assert"
)

type fakeNav struct {
	gotoCalls []string
	ended     bool
}

func (n *fakeNav) Goto(roomLabel string) error {
	n.gotoCalls = append(n.gotoCalls, roomLabel)
	return nil
}

func (n *fakeNav) End() {
	n.ended = true
}

func newTestSession() (*State, *logic.Interpreter, *logic.Dispatcher, *fakeNav) {
	st := NewState("crypt")
	d := logic.NewDispatcher(logic.NewPendingQueue())
	nav := &fakeNav{}
	RegisterBuiltins(d, st, nav)
	in := logic.New(st, d)
	RegisterConditions(in, st)
	return st, in, d, nav
}

func Test_builtins_setAndAdd(t *testing.T) {
	assert := assert.New(t)

	st, in, _, _ := newTestSession()

	in.Resolve("{set: opened}", false)
	assert.Equal(1.0, st.GetFlag("opened"))

	in.Resolve("{set: courage 3}", false)
	assert.Equal(3.0, st.GetFlag("courage"))

	in.Resolve("{add: courage 2}", false)
	assert.Equal(5.0, st.GetFlag("courage"))

	in.Resolve("{set: !opened}", false)
	assert.Equal(0.0, st.GetFlag("opened"))

	// cross-dungeon addressing writes outside the current scope
	in.Resolve("{set: sewer.drained}", false)
	assert.Equal(1.0, st.Flags["sewer"]["drained"])
	assert.Equal(0.0, st.GetFlag("drained"))
}

func Test_builtins_gotoWaitsForTransition(t *testing.T) {
	assert := assert.New(t)

	_, in, d, nav := newTestSession()

	res := in.Resolve("You take the stairs down. {goto: undercroft}", false)

	assert.Equal("You take the stairs down.", res.Output)
	assert.Empty(nav.gotoCalls, "goto must wait for the scene transition")

	d.FlushDelayed()
	assert.Equal([]string{"undercroft"}, nav.gotoCalls)
}

func Test_builtins_delayedOrderingAcrossResolutions(t *testing.T) {
	assert := assert.New(t)

	st, in, d, nav := newTestSession()

	// a room body and one of its choices each queue delayed actions; they
	// fire at the next transition in first-seen order
	in.Resolve("{music: dirge}", false)
	in.Resolve("{goto: ossuary}", false)

	assert.Empty(st.Music)
	d.FlushDelayed()

	assert.Equal("dirge", st.Music)
	assert.Equal([]string{"ossuary"}, nav.gotoCalls)
}

func Test_builtins_soundAccumulates(t *testing.T) {
	assert := assert.New(t)

	st, in, _, _ := newTestSession()

	res := in.Resolve("{sound: thud} drip drip {sound: creak, drip}", false)

	assert.Equal("drip drip", res.Output)
	assert.Equal([]string{"thud", "creak", "drip"}, res.Actions["sound"])
	assert.Equal([]string{"thud", "creak", "drip"}, st.Sounds)
	assert.Equal([]string{"thud", "creak", "drip"}, st.DrainSounds())
	assert.Empty(st.Sounds)
}

func Test_builtins_inventory(t *testing.T) {
	assert := assert.New(t)

	st, in, _, _ := newTestSession()

	in.Resolve("{give: lantern, rope}", false)
	assert.True(st.Has("lantern"))
	assert.True(st.Has("rope"))

	// removal prefix on give, and plain take, both remove
	in.Resolve("{give: !rope}", false)
	assert.False(st.Has("rope"))
	in.Resolve("{take: lantern}", false)
	assert.False(st.Has("lantern"))
}

func Test_builtins_viewDeduplicates(t *testing.T) {
	assert := assert.New(t)

	st, in, _, _ := newTestSession()

	in.Resolve("{view: shrine_art}", false)
	in.Resolve("{view: shrine_art}", false)

	assert.Equal([]string{"shrine_art"}, st.Views)
}

func Test_builtins_end(t *testing.T) {
	assert := assert.New(t)

	st, in, d, nav := newTestSession()

	in.Resolve("The tale closes. {end}", false)
	assert.False(st.Ended)

	d.FlushDelayed()
	assert.True(st.Ended)
	assert.True(nav.ended)
}

func Test_conditions_visitedAndHas(t *testing.T) {
	assert := assert.New(t)

	st, in, _, _ := newTestSession()

	assert.False(in.EvalCondition("visited crypt.gate.enter"))
	st.MarkVisited("crypt.gate.enter")
	assert.True(in.EvalCondition("visited crypt.gate.enter"))

	assert.False(in.EvalCondition("has lantern"))
	st.Give("lantern", 1)
	assert.True(in.EvalCondition("has lantern"))
	assert.True(in.EvalCondition("!has rope"))
}
