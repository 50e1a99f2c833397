// Package gdm has functions for loading dungeon content using the GDM
// (Grotto Dungeon Markup) bundle format, a TOML-based format that wraps raw
// dungeon markup with metadata, flag defaults, and multi-file manifests.
package gdm

import (
	"errors"
	"os"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/ashgrowen/grotto/internal/dungeon"
)

const MaxManifestRecursionDepth = 32

var (
	// ErrManifestEmpty is the error returned when a manifest file is read
	// successfully but specifies no additional files to load.
	ErrManifestEmpty = errors.New("does not list any valid files to include")

	// ErrManifestStackOverflow is the error returned when manifests nest
	// deeper than MaxManifestRecursionDepth.
	ErrManifestStackOverflow = errors.New("too many manifests deep")

	// ErrManifestCircularRef is the error returned when a manifest's
	// inclusion chain refers back to itself.
	ErrManifestCircularRef = errors.New("manifest inclusion chain refers back to itself")
)

// Dungeon is one loaded dungeon: its parsed document plus the metadata and
// defaults its bundle file declared. Problems holds whatever the markup
// parser collected; a dungeon with problems still loads.
type Dungeon struct {
	ID           string
	Name         string
	Start        string
	Doc          dungeon.Document
	Problems     []dungeon.Problem
	FlagDefaults map[string]float64
}

// Bundle contains data loaded from one or more GDM files. Start names the
// dungeon play begins in.
type Bundle struct {
	Dungeons map[string]*Dungeon
	Start    string
}

// Manifest contains data loaded from one GDM Manifest file.
type Manifest struct {
	Files []string
}

// FileInfo contains the essential information all GDM format files must
// contain. It can be obtained from a file by reading it into memory and
// calling ScanFileInfo on the bytes.
type FileInfo struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`
}

// LoadBundle loads dungeons from the given GDM file. The file's type is
// auto-detected; a "DUNGEON" file loads alone, and a "MANIFEST" file loads
// every file it lists relative to itself, recursively following nested
// manifests. All loaded dungeons are combined and validated as one bundle.
func LoadBundle(path string) (Bundle, error) {
	loaded, err := recursiveLoad(path, nil)
	if err != nil {
		return Bundle{}, err
	}
	return parseBundle(loaded)
}

// LoadManifestFile loads manifest data from a GDM file.
func LoadManifestFile(path string) (manif Manifest, err error) {
	data, loadErr := os.ReadFile(path)
	if loadErr != nil {
		return manif, loadErr
	}

	unmarshaled, err := unmarshalManifest(data)
	if err != nil {
		return manif, err
	}
	return Manifest{Files: unmarshaled.Manifest.Files}, nil
}

// LoadDungeonFile loads a single dungeon from a GDM dungeon file.
func LoadDungeonFile(path string) (*Dungeon, error) {
	loaded, err := recursiveLoad(path, nil)
	if err != nil {
		return nil, err
	}
	b, err := parseBundle(loaded)
	if err != nil {
		return nil, err
	}
	for _, d := range b.Dungeons {
		return d, nil
	}
	return nil, errors.New("file contains no dungeon")
}

// ScanFileInfo reads the GDM common header info from raw file bytes. Only
// the bytes before the first table definition are parsed, so a file can be
// type-sniffed without decoding its whole body.
func ScanFileInfo(data []byte) (FileInfo, error) {
	topLevelEnd := -1
	onNewLine := false
	for b := range data {
		if onNewLine && data[b] == '[' {
			topLevelEnd = b
			break
		}
		if data[b] == '\n' {
			onNewLine = true
		} else if !unicode.IsSpace(rune(data[b])) {
			onNewLine = false
		}
	}

	scanData := data
	if topLevelEnd != -1 {
		scanData = data[:topLevelEnd]
	}

	var info FileInfo
	err := toml.Unmarshal(scanData, &info)
	return info, err
}
