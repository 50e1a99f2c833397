// Package grotto contains a CLI-driven engine for playing dungeon bundles:
// it renders resolved narration, reads choice selections, and advances
// scenes continuously until the content ends or the player quits.
package grotto

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/ashgrowen/grotto/internal/dungeon"
	"github.com/ashgrowen/grotto/internal/game"
	"github.com/ashgrowen/grotto/internal/gdm"
	"github.com/ashgrowen/grotto/internal/gerr"
	"github.com/ashgrowen/grotto/internal/input"
	"github.com/ashgrowen/grotto/internal/logic"
	"github.com/ashgrowen/grotto/internal/runtime"
)

const consoleOutputWidth = 80

// Engine contains the things needed to play a dungeon bundle from an
// interactive shell attached to an input stream and an output stream.
type Engine struct {
	bundle gdm.Bundle
	dng    *gdm.Dungeon
	st     *game.State
	inter  *logic.Interpreter
	disp   *logic.Dispatcher

	in          input.Reader
	out         *bufio.Writer
	forceDirect bool
	running     bool

	// nextRoom is set by the delayed goto handler during a flush and picked
	// up right after, when the transition loads the new scene.
	nextRoom string
}

// New creates an engine ready to play the bundle at bundlePath on the given
// streams. If nil is given for the input stream, input is read from stdin;
// if nil is given for the output stream, output goes to stdout. Readline is
// used when both streams are the real terminal and direct input is not
// forced.
func New(inputStream io.Reader, outputStream io.Writer, bundlePath string, forceDirectInput bool) (*Engine, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	bundle, err := gdm.LoadBundle(bundlePath)
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		bundle:      bundle,
		out:         bufio.NewWriter(outputStream),
		forceDirect: forceDirectInput,
	}

	useReadline := !forceDirectInput && inputStream == os.Stdin && outputStream == os.Stdout
	if useReadline {
		eng.in, err = input.NewInteractiveReader()
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
	} else {
		eng.in = input.NewDirectReader(inputStream)
	}

	eng.dng = bundle.Dungeons[bundle.Start]
	eng.st = game.NewState(eng.dng.ID)
	eng.st.Room = eng.dng.Start
	for name, v := range eng.dng.FlagDefaults {
		eng.st.SetFlag(name, v)
	}

	eng.disp = logic.NewDispatcher(logic.NewPendingQueue())
	eng.inter = logic.New(eng.st, eng.disp)
	game.RegisterBuiltins(eng.disp, eng.st, eng)
	game.RegisterConditions(eng.inter, eng.st)

	return eng, nil
}

// Close closes all resources associated with the Engine, including any
// readline-related resources created for interactive mode.
func (eng *Engine) Close() error {
	if eng.running {
		return fmt.Errorf("cannot close a running engine")
	}
	if err := eng.in.Close(); err != nil {
		return fmt.Errorf("close input reader: %w", err)
	}
	return nil
}

// Goto records the room that the current scene transition moves to. It runs
// from the delayed goto handler during a flush.
func (eng *Engine) Goto(roomLabel string) error {
	if _, ok := eng.dng.Doc.Room(roomLabel); !ok {
		return fmt.Errorf("no room %q in dungeon %q", roomLabel, eng.dng.ID)
	}
	eng.nextRoom = roomLabel
	return nil
}

// End stops the play loop at the end of the current transition.
func (eng *Engine) End() {
	eng.running = false
}

// RunUntilQuit begins playing the bundle and advancing scenes until the
// content ends or the player quits.
func (eng *Engine) RunUntilQuit() error {
	introMsg := "Welcome to Grotto\n"
	if eng.forceDirect {
		introMsg += "(direct input mode)\n"
	}
	introMsg += "=================\n\n"
	if eng.dng.Name != "" {
		introMsg += eng.dng.Name + "\n\n"
	}
	if err := eng.write(introMsg); err != nil {
		return err
	}

	for _, p := range eng.dng.Problems {
		if err := eng.write("(content warning) " + p.String() + "\n"); err != nil {
			return err
		}
	}

	eng.running = true
	defer func() {
		eng.running = false
	}()

	for eng.running {
		if err := eng.playRoom(eng.st.Room); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	return eng.write("\nGoodbye\n")
}

// playRoom renders one room and runs its encounters until a transition moves
// elsewhere or the content runs out.
func (eng *Engine) playRoom(label string) error {
	room, ok := eng.dng.Doc.Room(label)
	if !ok {
		return fmt.Errorf("no room %q in dungeon %q", label, eng.dng.ID)
	}
	eng.st.MarkVisited(label)

	if room.Body != "" {
		if err := eng.printResolved(eng.inter.Resolve(room.Body, false)); err != nil {
			return err
		}
	}
	if err := eng.fireEvents(label); err != nil {
		return err
	}

	for _, encID := range room.EncounterIDs {
		encNode, ok := eng.dng.Doc.Encounter(encID)
		if !ok {
			continue
		}
		moved, err := eng.playEncounter(encNode)
		if err != nil {
			return err
		}
		if moved || !eng.running {
			return nil
		}
	}

	// no transition happened and nothing is left to offer
	if eng.running {
		eng.running = false
		return eng.write("\nThe tale ends here.\n")
	}
	return nil
}

// playEncounter shows one encounter's narration and choice list, takes the
// player's selection, and advances the scene. It reports whether the
// transition moved to another room.
func (eng *Engine) playEncounter(encNode dungeon.EncounterNode) (bool, error) {
	eng.st.Encounter = encNode.LineID()
	eng.st.MarkVisited(encNode.LineID())

	enc := runtime.NewEncounter(eng.inter, &eng.dng.Doc, encNode, eng.st)
	if err := eng.printResolved(enc.Narration()); err != nil {
		return false, err
	}
	if err := eng.fireEvents(encNode.LineID()); err != nil {
		return false, err
	}

	choices := enc.VisibleChoices()
	if len(choices) == 0 {
		return false, nil
	}

	for {
		if err := eng.printChoices(choices); err != nil {
			return false, err
		}

		choice, err := eng.readSelection(choices)
		if err != nil {
			return false, err
		}
		if choice == nil {
			// player quit
			eng.running = false
			return false, nil
		}

		res, ok := choice.Do()
		if !ok {
			if err := eng.write("You can't do that right now.\n"); err != nil {
				return false, err
			}
			continue
		}
		if err := eng.printResolved(res); err != nil {
			return false, err
		}

		return eng.transition()
	}
}

// transition is the scene boundary: the pending delayed actions flush
// exactly once, and whatever room the flush chose loads next. It reports
// whether a move happened.
func (eng *Engine) transition() (bool, error) {
	eng.nextRoom = ""
	eng.disp.FlushDelayed()

	if eng.st.Music != "" {
		if err := eng.write("(music: " + eng.st.Music + ")\n"); err != nil {
			return false, err
		}
	}

	if eng.nextRoom == "" {
		return false, nil
	}
	eng.st.Room = eng.nextRoom
	eng.st.Encounter = ""
	return true, nil
}

// fireEvents runs every event parented to the given line id, printing any
// narration they resolve to.
func (eng *Engine) fireEvents(parentID string) error {
	for _, ev := range eng.dng.Doc.Events(parentID) {
		res, ok := runtime.FireEvent(eng.inter, ev, eng.st)
		if !ok {
			continue
		}
		if err := eng.printResolved(res); err != nil {
			return err
		}
	}
	return nil
}

// printChoices renders the numbered choice list, marking visible but
// unavailable entries.
func (eng *Engine) printChoices(choices []*runtime.Choice) error {
	var sb strings.Builder
	sb.WriteString("\n")
	for i, c := range choices {
		text := eng.choiceText(c)
		sb.WriteString(fmt.Sprintf("  %d) %s", i+1, text))
		if !c.IsAvailable() {
			sb.WriteString(" (not available)")
		}
		sb.WriteString("\n")
	}
	return eng.write(sb.String())
}

// choiceText resolves a choice's display text without running its actions,
// falling back to the label when the params carry no prose.
func (eng *Engine) choiceText(c *runtime.Choice) string {
	_, payload := logic.ExtractGuards(c.Node.RawParams)
	if text := eng.inter.Resolve(payload, true).Output; text != "" {
		return text
	}
	return c.Node.Label
}

// readSelection reads input until it names one of the offered choices. A nil
// choice with nil error means the player asked to quit.
func (eng *Engine) readSelection(choices []*runtime.Choice) (*runtime.Choice, error) {
	for {
		if err := eng.write("> "); err != nil {
			return nil, err
		}
		line, err := eng.in.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read selection: %w", err)
		}

		switch strings.ToLower(line) {
		case "quit", "q", "bye":
			return nil, nil
		}

		n, convErr := strconv.Atoi(line)
		if convErr != nil || n < 1 || n > len(choices) {
			badErr := gerr.Playf("Please enter a number from 1 to %d.", len(choices))
			if err := eng.write(gerr.PlayerMessage(badErr) + "\n"); err != nil {
				return nil, err
			}
			continue
		}
		return choices[n-1], nil
	}
}

// printResolved writes a resolution's text wrapped to console width, then
// any one-shot sounds it queued.
func (eng *Engine) printResolved(res logic.Resolved) error {
	if res.Output != "" {
		wrapped := rosed.Edit(res.Output).WrapOpts(consoleOutputWidth, rosed.Options{
			PreserveParagraphs: true,
		}).String()
		if err := eng.write(wrapped + "\n\n"); err != nil {
			return err
		}
	}
	for _, snd := range eng.st.DrainSounds() {
		if err := eng.write("(sound: " + snd + ")\n"); err != nil {
			return err
		}
	}
	return nil
}

func (eng *Engine) write(s string) error {
	if _, err := eng.out.WriteString(s); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := eng.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}
	return nil
}
