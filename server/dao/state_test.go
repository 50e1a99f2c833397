package dao

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_PlayState_roundTrip(t *testing.T) {
	assert := assert.New(t)

	ps := PlayState{
		Dungeon:   "crypt",
		Room:      "antechamber",
		Encounter: "antechamber.lever",
		Flags: map[string]map[string]float64{
			"crypt": {"courage": 2, "doorOpen": 1},
			"swamp": {"bogged": 0.5},
		},
		Visited: []string{"antechamber", "antechamber.lever", "antechamber.lever.pull"},
		Items:   map[string]int{"torch": 1, "coin": 12},
		Music:   "dripstone",
		Views:   []string{"mural"},
		Ended:   false,
	}

	data, err := ps.MarshalBinary()
	assert.NoError(err)

	var got PlayState
	err = got.UnmarshalBinary(data)
	assert.NoError(err)

	assert.Equal(ps, got)
}

func Test_PlayState_roundTripEmpty(t *testing.T) {
	assert := assert.New(t)

	data, err := PlayState{Dungeon: "d"}.MarshalBinary()
	assert.NoError(err)

	var got PlayState
	err = got.UnmarshalBinary(data)
	assert.NoError(err)

	assert.Equal("d", got.Dungeon)
	assert.Empty(got.Flags)
	assert.Empty(got.Items)
	assert.False(got.Ended)
}

func Test_PlayState_crossDungeonFlagScopes(t *testing.T) {
	assert := assert.New(t)

	// a flag name containing a dot still lands in the right dungeon scope
	// because only the first dot splits
	ps := PlayState{
		Dungeon: "crypt",
		Flags: map[string]map[string]float64{
			"crypt": {"chapter.one": 3},
		},
	}

	data, err := ps.MarshalBinary()
	assert.NoError(err)

	var got PlayState
	err = got.UnmarshalBinary(data)
	assert.NoError(err)

	assert.Equal(float64(3), got.Flags["crypt"]["chapter.one"])
}
