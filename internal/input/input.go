// Package input reads player selections for the grotto play loop, either
// directly from a stream or interactively through readline.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Reader is a source of player input lines. The play loop calls ReadLine
// once per prompt, for choice numbers and meta commands alike.
type Reader interface {
	// ReadLine blocks until a line with non-space characters is read, unless
	// blanks are allowed, and returns it trimmed. At end of input it returns
	// io.EOF.
	ReadLine() (string, error)

	// AllowBlank sets whether an empty line is returned instead of skipped.
	AllowBlank(allow bool)

	// Close releases any resources held by the reader.
	Close() error
}

// DirectReader reads player input from any generic input stream directly. It
// does not sanitize control or escape sequences, so it suits piped input and
// tests rather than a TTY.
//
// Create one with [NewDirectReader].
type DirectReader struct {
	r             *bufio.Reader
	blanksAllowed bool
}

// InteractiveReader reads player input from stdin through a Go
// implementation of GNU Readline, which keeps input clear of typing and
// editing escape sequences and enables line history. Use it when directly
// connected to a TTY.
//
// Create one with [NewInteractiveReader]; the result must have Close called
// on it before disposal to tear down readline resources.
type InteractiveReader struct {
	rl            *readline.Instance
	blanksAllowed bool
	prompt        string
}

// NewDirectReader creates a DirectReader buffered on r.
func NewDirectReader(r io.Reader) *DirectReader {
	return &DirectReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates an InteractiveReader and initializes
// readline.
func NewInteractiveReader() (*InteractiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "> ",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveReader{
		rl:     rl,
		prompt: "> ",
	}, nil
}

// Close is here so DirectReader implements Reader; it holds no resources
// yet, but callers should treat it as though it must be closed.
func (dr *DirectReader) Close() error {
	return nil
}

// Close tears down readline resources.
func (ir *InteractiveReader) Close() error {
	return ir.rl.Close()
}

// ReadLine reads the next line from the stream.
func (dr *DirectReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line == "" && dr.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// ReadLine reads the next line typed at the prompt.
func (ir *InteractiveReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = ir.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line == "" && ir.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// AllowBlank sets whether blank input is allowed. By default it is not.
func (dr *DirectReader) AllowBlank(allow bool) {
	dr.blanksAllowed = allow
}

// AllowBlank sets whether blank input is allowed. By default it is not.
func (ir *InteractiveReader) AllowBlank(allow bool) {
	ir.blanksAllowed = allow
}

// SetPrompt updates the prompt to the given text.
func (ir *InteractiveReader) SetPrompt(p string) {
	ir.prompt = p
	ir.rl.SetPrompt(p)
}

// GetPrompt gets the current prompt.
func (ir *InteractiveReader) GetPrompt() string {
	return ir.prompt
}
