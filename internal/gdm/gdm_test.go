package gdm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const cryptFile = `format = "GROTTO"
type = "DUNGEON"

[dungeon]
id = "crypt"
name = "The Sunken Crypt"
start = "gate"
markup = '''
^gate hall
The gate stands open.
@greet
A voice calls out.
%
!enter {goto: hall}
^hall
Dust everywhere.
'''

[dungeon.flags]
courage = 3
`

func Test_LoadDungeonFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := writeFile(t, dir, "crypt.gd", cryptFile)

	d, err := LoadDungeonFile(path)

	require.NoError(t, err)
	assert.Equal("crypt", d.ID)
	assert.Equal("The Sunken Crypt", d.Name)
	assert.Equal("gate", d.Start)
	assert.Equal(3.0, d.FlagDefaults["courage"])
	assert.Empty(d.Problems)

	_, ok := d.Doc.Room("hall")
	assert.True(ok)
	_, ok = d.Doc.Choice("gate.greet.enter")
	assert.True(ok)
}

func Test_LoadDungeonFile_markupFromFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	writeFile(t, dir, "crypt.dgm", "^gate\nThe gate.\n")
	path := writeFile(t, dir, "crypt.gd", `format = "GROTTO"
type = "DUNGEON"

[dungeon]
id = "crypt"
markup_file = "crypt.dgm"
`)

	d, err := LoadDungeonFile(path)

	require.NoError(t, err)
	// with no explicit start, play begins in the first room
	assert.Equal("gate", d.Start)
}

func Test_LoadDungeonFile_problemsStillLoad(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := writeFile(t, dir, "broken.gd", `format = "GROTTO"
type = "DUNGEON"

[dungeon]
id = "broken"
markup = '''
^gate
@stray
words
@stray
'''
`)

	d, err := LoadDungeonFile(path)

	require.NoError(t, err)
	assert.NotEmpty(d.Problems)
	_, ok := d.Doc.Room("gate")
	assert.True(ok)
}

func Test_LoadBundle_manifest(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	writeFile(t, dir, "crypt.gd", cryptFile)
	writeFile(t, dir, "sewer.gd", `format = "GROTTO"
type = "DUNGEON"

[dungeon]
id = "sewer"
start_here = true
markup = '''
^drain
It smells.
'''
`)
	path := writeFile(t, dir, "bundle.gd", `format = "GROTTO"
type = "MANIFEST"

[manifest]
files = ["crypt.gd", "sewer.gd"]
`)

	b, err := LoadBundle(path)

	require.NoError(t, err)
	assert.Len(b.Dungeons, 2)
	assert.Equal("sewer", b.Start)
	assert.Contains(b.Dungeons, "crypt")
}

func Test_LoadBundle_circularManifestIsSkipped(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	writeFile(t, dir, "crypt.gd", cryptFile)
	writeFile(t, dir, "a.gd", `format = "GROTTO"
type = "MANIFEST"

[manifest]
files = ["b.gd", "crypt.gd"]
`)
	path := writeFile(t, dir, "b.gd", `format = "GROTTO"
type = "MANIFEST"

[manifest]
files = ["a.gd"]
`)

	b, err := LoadBundle(path)

	require.NoError(t, err)
	assert.Len(b.Dungeons, 1)
}

func Test_LoadBundle_errors(t *testing.T) {
	testCases := []struct {
		name      string
		content   string
		expectMsg string
	}{
		{
			name:      "wrong format",
			content:   "format = \"TUNA\"\ntype = \"DUNGEON\"\n",
			expectMsg: "format",
		},
		{
			name:      "unknown type",
			content:   "format = \"GROTTO\"\ntype = \"SAVE\"\n",
			expectMsg: "type",
		},
		{
			name:      "empty manifest",
			content:   "format = \"GROTTO\"\ntype = \"MANIFEST\"\n\n[manifest]\nfiles = []\n",
			expectMsg: "include",
		},
		{
			name:      "missing id",
			content:   "format = \"GROTTO\"\ntype = \"DUNGEON\"\n\n[dungeon]\nmarkup = \"^gate\"\n",
			expectMsg: "id",
		},
		{
			name:      "bad start room",
			content:   "format = \"GROTTO\"\ntype = \"DUNGEON\"\n\n[dungeon]\nid = \"x\"\nstart = \"nowhere\"\nmarkup = \"^gate\"\n",
			expectMsg: "start room",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			dir := t.TempDir()
			path := writeFile(t, dir, "bad.gd", tc.content)

			_, err := LoadBundle(path)

			if assert.Error(err) {
				assert.Contains(err.Error(), tc.expectMsg)
			}
		})
	}
}
