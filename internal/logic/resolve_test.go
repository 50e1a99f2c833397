package logic

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordLog captures every record sent to it so tests can count warnings.
type recordLog struct {
	records *[]slog.Record
}

func newRecordLog() (*slog.Logger, *[]slog.Record) {
	records := &[]slog.Record{}
	return slog.New(recordLog{records: records}), records
}

func (h recordLog) Enabled(context.Context, slog.Level) bool { return true }

func (h recordLog) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}

func (h recordLog) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h recordLog) WithGroup(string) slog.Handler { return h }

func Test_Resolve_conditionalBlocks(t *testing.T) {
	flags := mapFlags{"brave": 1, "torch": 0}

	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "plain text round trip",
			input:  "plain text",
			expect: "plain text",
		},
		{
			name:   "true block keeps content",
			input:  "a if{brave = 1}b fi{}c",
			expect: "a b c",
		},
		{
			name:   "false block suppresses content",
			input:  "a if{brave = 2}b fi{}c",
			expect: "a c",
		},
		{
			name:   "nested inner false",
			input:  "if{brave = 1}x if{torch = 1}y fi{}z fi{}",
			expect: "x z",
		},
		{
			name:   "nested outer false suppresses everything",
			input:  "if{brave = 2}x if{torch = 0}y fi{}z fi{}",
			expect: "",
		},
		{
			name:   "ifOr takes one true clause",
			input:  "if{brave = 2}no fi{}ifOr{brave = 2 or torch = 0}yes fi{}",
			expect: "yes",
		},
		{
			name:   "active block reads like if",
			input:  "active{brave = 1}shown fi{}",
			expect: "shown",
		},
		{
			name:   "keyword inside a word is text",
			input:  "motifs fit the serif, fi and all",
			expect: "motifs fit the serif, fi and all",
		},
		{
			name:   "stray fi is dropped",
			input:  "before fi{}after",
			expect: "before after",
		},
		{
			name:   "missing fi suppresses the rest",
			input:  "a if{brave = 2}b c d",
			expect: "a",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			in := New(flags, NewDispatcher(nil))

			actual := in.Resolve(tc.input, false)

			assert.Equal(tc.expect, actual.Output)
			assert.Empty(actual.Actions)
		})
	}
}

func Test_Resolve_placeholders(t *testing.T) {
	assert := assert.New(t)

	in := New(mapFlags{}, NewDispatcher(nil))
	in.RegisterPlaceholder("name", func() string { return "Alice" })

	actual := in.Resolve("Hello |name|!", false)
	assert.Equal("Hello Alice!", actual.Output)

	// pure given a fixed registry
	again := in.Resolve("Hello |name|!", false)
	assert.Equal(actual.Output, again.Output)
}

func Test_Resolve_unknownPlaceholderPassesThrough(t *testing.T) {
	assert := assert.New(t)

	in := New(mapFlags{}, NewDispatcher(nil))

	actual := in.Resolve("Hello |nobody|!", false)

	assert.Equal("Hello |nobody|!", actual.Output)
}

func Test_Resolve_inlineActions(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(nil)
	in := New(mapFlags{}, d)
	var gotArgs interface{}
	d.Register("music", func(args interface{}) error {
		gotArgs = args
		return nil
	}, HandlerOptions{})

	actual := in.Resolve("The band strikes up. {music: dirge} You shiver.", false)

	assert.Equal("The band strikes up. You shiver.", actual.Output)
	assert.Equal("dirge", gotArgs)
	assert.Equal(map[string]interface{}{"music": "dirge"}, actual.Actions)
}

func Test_Resolve_unknownActionIsExcised(t *testing.T) {
	assert := assert.New(t)

	logger, records := newRecordLog()
	d := NewDispatcher(nil)
	d.SetLogger(logger)
	in := New(mapFlags{}, d)
	in.SetLogger(logger)

	var actual Resolved
	assert.NotPanics(func() {
		actual = in.Resolve("{unknown_action: 5}", false)
	})

	assert.Equal("", actual.Output)
	assert.Equal(map[string]interface{}{"unknown_action": 5.0}, actual.Actions)

	if assert.Len(*records, 1, "want exactly one warning for the unknown action") {
		assert.Equal(slog.LevelWarn, (*records)[0].Level)
	}
}

func Test_Resolve_noExecuteStillCollectsActions(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(nil)
	in := New(mapFlags{}, d)
	ran := false
	d.Register("set", func(args interface{}) error {
		ran = true
		return nil
	}, HandlerOptions{})

	actual := in.Resolve("text {set: opened} more", true)

	assert.Equal("text more", actual.Output)
	assert.Equal(map[string]interface{}{"set": "opened"}, actual.Actions)
	assert.False(ran, "noExecute must keep the dispatcher out of it")
}

func Test_Resolve_falseBlockSuppressesSideEffects(t *testing.T) {
	assert := assert.New(t)

	q := NewPendingQueue()
	d := NewDispatcher(q)
	in := New(mapFlags{}, d)
	ran := false
	d.Register("set", func(args interface{}) error {
		ran = true
		return nil
	}, HandlerOptions{})
	d.Register("music", func(args interface{}) error {
		return nil
	}, HandlerOptions{Delayed: true})

	actual := in.Resolve("a if{gone = 1}|ghost| {set: x} {music: dirge} fi{}b", false)

	assert.Equal("a b", actual.Output)
	assert.Empty(actual.Actions)
	assert.False(ran)
	assert.Zero(q.Len(), "a suppressed block must not enqueue delayed actions")
}

func Test_Resolve_quotedTerminatorInsideSuppressedAction(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(nil)
	in := New(mapFlags{}, d)
	ran := false
	d.Register("say", func(args interface{}) error {
		ran = true
		return nil
	}, HandlerOptions{})

	// the fi{} inside the quoted value is value text; the block closes at
	// the real terminator after "hidden"
	actual := in.Resolve("a if{gone = 1}{say: 'fi{} for effect'} hidden fi{}b", false)

	assert.Equal("a b", actual.Output)
	assert.Empty(actual.Actions)
	assert.False(ran)
}

func Test_Resolve_lastActionWinsUnlessAccumulating(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(nil)
	in := New(mapFlags{}, d)
	d.Register("goto", func(args interface{}) error { return nil }, HandlerOptions{})
	d.Register("sound", func(args interface{}) error { return nil }, HandlerOptions{Accumulates: true})

	actual := in.Resolve("{goto: hall} {sound: thud} {goto: crypt} {sound: creak,drip}", false)

	assert.Equal("", actual.Output)
	assert.Equal("crypt", actual.Actions["goto"])
	assert.Equal([]string{"thud", "creak", "drip"}, actual.Actions["sound"])
}

func Test_Resolve_ordersConstructsLeftToRight(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(nil)
	in := New(mapFlags{"seen": 1}, d)
	var order []string
	d.Register("a", func(args interface{}) error {
		order = append(order, "a")
		return nil
	}, HandlerOptions{})
	d.Register("b", func(args interface{}) error {
		order = append(order, "b")
		return nil
	}, HandlerOptions{})
	in.RegisterPlaceholder("mid", func() string {
		order = append(order, "mid")
		return "-"
	})

	in.Resolve("{a} |mid| if{seen = 1}{b} fi{}", false)

	assert.Equal([]string{"a", "mid", "b"}, order)
}
