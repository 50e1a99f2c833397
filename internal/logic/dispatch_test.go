package logic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Dispatcher_immediateExecution(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(nil)
	var got interface{}
	d.Register("set", func(args interface{}) error {
		got = args
		return nil
	}, HandlerOptions{})

	d.Execute("set", "opened")

	assert.Equal("opened", got)
}

func Test_Dispatcher_delayedUntilFlush(t *testing.T) {
	assert := assert.New(t)

	q := NewPendingQueue()
	d := NewDispatcher(q)
	var calls []string
	d.Register("music", func(args interface{}) error {
		calls = append(calls, fmt.Sprintf("music:%v", args))
		return nil
	}, HandlerOptions{Delayed: true})
	d.Register("sound", func(args interface{}) error {
		calls = append(calls, fmt.Sprintf("sound:%v", args))
		return nil
	}, HandlerOptions{Delayed: true})

	d.Execute("music", "dirge")
	d.Execute("sound", "thud")

	assert.Empty(calls, "delayed handlers must not run before the flush")
	assert.Equal(2, q.Len())

	d.FlushDelayed()

	assert.Equal([]string{"music:dirge", "sound:thud"}, calls)
	assert.Zero(q.Len())

	// a second flush with nothing queued is a no-op
	d.FlushDelayed()
	assert.Len(calls, 2)
}

func Test_Dispatcher_fifoAcrossResolutions(t *testing.T) {
	assert := assert.New(t)

	q := NewPendingQueue()
	d := NewDispatcher(q)
	in := New(mapFlags{}, d)

	var order []string
	record := func(name string) Handler {
		return func(args interface{}) error {
			order = append(order, name)
			return nil
		}
	}
	d.Register("first", record("first"), HandlerOptions{Delayed: true})
	d.Register("second", record("second"), HandlerOptions{Delayed: true})

	in.Resolve("{first}", false)
	in.Resolve("{second}", false)
	d.FlushDelayed()

	assert.Equal([]string{"first", "second"}, order)
}

func Test_Dispatcher_unknownActionIsSkipped(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(nil)
	ran := false
	d.Register("known", func(args interface{}) error {
		ran = true
		return nil
	}, HandlerOptions{})

	assert.NotPanics(func() {
		d.Execute("unknown", 5)
		d.Execute("known", nil)
	})
	assert.True(ran)
}

func Test_Dispatcher_handlerFailureDoesNotAbortFlush(t *testing.T) {
	assert := assert.New(t)

	q := NewPendingQueue()
	d := NewDispatcher(q)
	var ran []string
	d.Register("boom", func(args interface{}) error {
		ran = append(ran, "boom")
		panic("handler bug")
	}, HandlerOptions{Delayed: true})
	d.Register("fail", func(args interface{}) error {
		ran = append(ran, "fail")
		return fmt.Errorf("no such room")
	}, HandlerOptions{Delayed: true})
	d.Register("fine", func(args interface{}) error {
		ran = append(ran, "fine")
		return nil
	}, HandlerOptions{Delayed: true})

	d.Execute("boom", nil)
	d.Execute("fail", nil)
	d.Execute("fine", nil)

	assert.NotPanics(d.FlushDelayed)
	assert.Equal([]string{"boom", "fail", "fine"}, ran)
	assert.Zero(q.Len())
}

func Test_Dispatcher_reentrantExecute(t *testing.T) {
	assert := assert.New(t)

	q := NewPendingQueue()
	d := NewDispatcher(q)
	var order []string
	d.Register("outer", func(args interface{}) error {
		order = append(order, "outer")
		d.Execute("inner", nil)
		d.Execute("later", nil)
		return nil
	}, HandlerOptions{})
	d.Register("inner", func(args interface{}) error {
		order = append(order, "inner")
		return nil
	}, HandlerOptions{})
	d.Register("later", func(args interface{}) error {
		order = append(order, "later")
		return nil
	}, HandlerOptions{Delayed: true})

	d.Execute("outer", nil)

	assert.Equal([]string{"outer", "inner"}, order)
	assert.Equal(1, q.Len())

	d.FlushDelayed()
	assert.Equal([]string{"outer", "inner", "later"}, order)
}
