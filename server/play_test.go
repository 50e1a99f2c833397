package server

import (
	"testing"

	"github.com/ashgrowen/grotto/server/dao"
	"github.com/stretchr/testify/assert"
)

const caveMarkup = "^cave\n" +
	"Dripping water echoes.\n" +
	"@fork\n" +
	"Two passages branch ahead.\n" +
	"%\n" +
	"!left Take the left passage {goto: hall}\n" +
	"!wait Wait and listen {sound: drip}\n" +
	"^hall\n" +
	"You emerge into a moonlit hall.\n" +
	"@rest\n" +
	"The long night is over.\n" +
	"%\n" +
	"!done Sleep until morning {end}\n"

func Test_play_startStopsAtFirstChoice(t *testing.T) {
	assert := assert.New(t)

	p, err := newPlay(caveMarkup, dao.PlayState{Dungeon: "d1"})
	assert.NoError(err)

	err = p.start()
	assert.NoError(err)

	view := p.view()
	assert.Contains(view.Narration, "Dripping water echoes.")
	assert.Contains(view.Narration, "Two passages branch ahead.")
	assert.False(view.Ended)
	if assert.Len(view.Choices, 2) {
		assert.Equal(1, view.Choices[0].Number)
		assert.Equal("Take the left passage", view.Choices[0].Text)
		assert.True(view.Choices[0].Available)
		assert.Equal("Wait and listen", view.Choices[1].Text)
	}

	snap := p.snapshot()
	assert.Equal("cave", snap.Room)
	assert.Equal("cave.fork", snap.Encounter)
	assert.Contains(snap.Visited, "cave")
	assert.Contains(snap.Visited, "cave.fork")
}

func Test_play_chooseMovesRooms(t *testing.T) {
	assert := assert.New(t)

	p, err := newPlay(caveMarkup, dao.PlayState{Dungeon: "d1"})
	assert.NoError(err)
	assert.NoError(p.start())
	snap := p.snapshot()

	// a fresh play resumes from the snapshot, as the server does per request
	p, err = newPlay(caveMarkup, snap)
	assert.NoError(err)

	err = p.choose(1)
	assert.NoError(err)

	view := p.view()
	assert.Contains(view.Narration, "Take the left passage")
	assert.Contains(view.Narration, "You emerge into a moonlit hall.")
	assert.Contains(view.Narration, "The long night is over.")
	assert.False(view.Ended)
	if assert.Len(view.Choices, 1) {
		assert.Equal("Sleep until morning", view.Choices[0].Text)
	}

	snap = p.snapshot()
	assert.Equal("hall", snap.Room)
	assert.Equal("hall.rest", snap.Encounter)
}

func Test_play_chooseWithoutMoveExhaustsRoom(t *testing.T) {
	assert := assert.New(t)

	p, err := newPlay(caveMarkup, dao.PlayState{Dungeon: "d1"})
	assert.NoError(err)
	assert.NoError(p.start())

	err = p.choose(2)
	assert.NoError(err)

	// the cave has nothing after the fork, so waiting runs the tale out
	view := p.view()
	assert.True(view.Ended)
	assert.Contains(view.Narration, "The tale ends here.")
	assert.Contains(view.Sounds, "drip")
	assert.Empty(view.Choices)
}

func Test_play_endChoiceEndsSession(t *testing.T) {
	assert := assert.New(t)

	p, err := newPlay(caveMarkup, dao.PlayState{Dungeon: "d1"})
	assert.NoError(err)
	assert.NoError(p.start())
	assert.NoError(p.choose(1))

	p, err = newPlay(caveMarkup, p.snapshot())
	assert.NoError(err)

	err = p.choose(1)
	assert.NoError(err)

	view := p.view()
	assert.True(view.Ended)
	assert.Contains(view.Narration, "Sleep until morning")
	assert.Empty(view.Choices)

	// a finished session refuses further choices
	err = p.choose(1)
	assert.Error(err)
}

func Test_play_rejectsBadChoice(t *testing.T) {
	assert := assert.New(t)

	p, err := newPlay(caveMarkup, dao.PlayState{Dungeon: "d1"})
	assert.NoError(err)
	assert.NoError(p.start())

	assert.Error(p.choose(0))
	assert.Error(p.choose(3))
}

func Test_play_viewOnResumeRendersWithoutExecuting(t *testing.T) {
	assert := assert.New(t)

	p, err := newPlay(caveMarkup, dao.PlayState{Dungeon: "d1"})
	assert.NoError(err)
	assert.NoError(p.start())
	snap := p.snapshot()

	// a pure read renders the current encounter but must not mutate state
	p, err = newPlay(caveMarkup, snap)
	assert.NoError(err)

	view := p.view()
	assert.Contains(view.Narration, "Two passages branch ahead.")
	assert.Len(view.Choices, 2)

	assert.Equal(snap, p.snapshot())
}
