package gdm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ashgrowen/grotto/internal/dungeon"
)

// marshaled file shapes

type topLevelManifest struct {
	Manifest struct {
		Files []string `toml:"files"`
	} `toml:"manifest"`
}

type topLevelDungeon struct {
	Dungeon dungeonEntry `toml:"dungeon"`
}

type dungeonEntry struct {
	ID         string             `toml:"id"`
	Name       string             `toml:"name"`
	Start      string             `toml:"start"`
	Markup     string             `toml:"markup"`
	MarkupFile string             `toml:"markup_file"`
	Flags      map[string]float64 `toml:"flags"`
	StartHere  bool               `toml:"start_here"`
}

// loadedDungeon pairs a decoded entry with the path it came from, for error
// messages and for resolving markup_file relative paths.
type loadedDungeon struct {
	entry dungeonEntry
	path  string
}

// recursiveLoad reads the file at path and returns every dungeon entry it
// brings in. The manifest stack detects circular includes, which are skipped
// rather than failed, and bounds the recursion depth.
func recursiveLoad(path string, manifStack []string) ([]loadedDungeon, error) {
	path = filepath.Clean(path)

	fileData, loadErr := os.ReadFile(path)
	if loadErr != nil {
		return nil, fmt.Errorf("%q: reading from disk: %w", path, loadErr)
	}

	fileInfo, err := ScanFileInfo(fileData)
	if err != nil {
		return nil, fmt.Errorf("%q: detecting file type: %w", path, err)
	}

	if strings.ToUpper(fileInfo.Format) != "GROTTO" {
		return nil, fmt.Errorf("%q: file does not have a 'format = \"GROTTO\"' entry", path)
	}

	switch strings.ToUpper(fileInfo.Type) {
	case "DUNGEON":
		var top topLevelDungeon
		if err := toml.Unmarshal(fileData, &top); err != nil {
			return nil, fmt.Errorf("dungeon file %q: %w", path, err)
		}
		return []loadedDungeon{{entry: top.Dungeon, path: path}}, nil

	case "MANIFEST":
		if len(manifStack) >= MaxManifestRecursionDepth {
			return nil, fmt.Errorf("manifest file %q: %w", path, ErrManifestStackOverflow)
		}
		for i := range manifStack {
			if manifStack[i] == path {
				return nil, fmt.Errorf("manifest file %q: %w", path, ErrManifestCircularRef)
			}
		}

		manif, err := unmarshalManifest(fileData)
		if err != nil {
			return nil, fmt.Errorf("manifest file %q: %w", path, err)
		}
		if len(manif.Manifest.Files) < 1 && len(manifStack) == 0 {
			return nil, fmt.Errorf("manifest file %q: %w", path, ErrManifestEmpty)
		}

		manifSubStack := make([]string, len(manifStack)+1)
		copy(manifSubStack, manifStack)
		manifSubStack[len(manifSubStack)-1] = path

		manifDir := filepath.Dir(path)

		var loaded []loadedDungeon
		for _, rel := range manif.Manifest.Files {
			sub, err := recursiveLoad(filepath.Join(manifDir, rel), manifSubStack)
			if err != nil {
				// a circular reference is skipped, not failed; the file is
				// already being loaded further up the chain
				if errors.Is(err, ErrManifestCircularRef) {
					continue
				}
				return nil, fmt.Errorf("in file referred to by manifest file:\n    %q\n%w", path, err)
			}
			loaded = append(loaded, sub...)
		}

		if len(manifStack) == 0 && len(loaded) == 0 {
			return nil, fmt.Errorf("manifest file %q: %w", path, ErrManifestEmpty)
		}
		return loaded, nil

	default:
		return nil, fmt.Errorf("%q: file does not have 'type = ' entry set to either \"DUNGEON\" or \"MANIFEST\"", path)
	}
}

func unmarshalManifest(tomlData []byte) (topLevelManifest, error) {
	var manif topLevelManifest
	if err := toml.Unmarshal(tomlData, &manif); err != nil {
		return manif, err
	}
	return manif, nil
}

// parseBundle validates loaded entries and parses their markup into
// documents. Markup problems are carried on the dungeon, not raised; only
// structural mistakes in the bundle itself fail the load.
func parseBundle(loaded []loadedDungeon) (Bundle, error) {
	b := Bundle{Dungeons: make(map[string]*Dungeon)}

	for _, ld := range loaded {
		d, err := parseDungeon(ld)
		if err != nil {
			return Bundle{}, err
		}
		if _, dup := b.Dungeons[d.ID]; dup {
			return Bundle{}, fmt.Errorf("dungeon file %q: duplicate dungeon id %q", ld.path, d.ID)
		}
		b.Dungeons[d.ID] = d

		if ld.entry.StartHere {
			if b.Start != "" {
				return Bundle{}, fmt.Errorf("dungeon file %q: start dungeon is already %q", ld.path, b.Start)
			}
			b.Start = d.ID
		}
	}

	if len(b.Dungeons) == 0 {
		return Bundle{}, errors.New("no dungeons loaded")
	}
	if b.Start == "" {
		if len(b.Dungeons) > 1 {
			return Bundle{}, errors.New("no dungeon has 'start_here = true'")
		}
		for id := range b.Dungeons {
			b.Start = id
		}
	}
	return b, nil
}

func parseDungeon(ld loadedDungeon) (*Dungeon, error) {
	e := ld.entry
	if e.ID == "" {
		return nil, fmt.Errorf("dungeon file %q: missing 'id' property", ld.path)
	}

	markup := e.Markup
	if markup == "" && e.MarkupFile != "" {
		raw, err := os.ReadFile(filepath.Join(filepath.Dir(ld.path), e.MarkupFile))
		if err != nil {
			return nil, fmt.Errorf("dungeon file %q: reading markup_file: %w", ld.path, err)
		}
		markup = string(raw)
	}
	if markup == "" {
		return nil, fmt.Errorf("dungeon file %q: needs either 'markup' or 'markup_file'", ld.path)
	}

	doc, problems := dungeon.Parse(markup)

	start := e.Start
	if start == "" {
		rooms := doc.Rooms()
		if len(rooms) == 0 {
			return nil, fmt.Errorf("dungeon file %q: markup defines no rooms", ld.path)
		}
		start = rooms[0].Label
	} else if _, ok := doc.Room(start); !ok {
		return nil, fmt.Errorf("dungeon file %q: start room %q is not defined in the markup", ld.path, start)
	}

	flags := e.Flags
	if flags == nil {
		flags = make(map[string]float64)
	}

	return &Dungeon{
		ID:           e.ID,
		Name:         e.Name,
		Start:        start,
		Doc:          doc,
		Problems:     problems,
		FlagDefaults: flags,
	}, nil
}
