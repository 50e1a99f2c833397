package logic

import (
	"log/slog"
)

// Handler executes one action. Args is whatever the action parser coerced
// for the action's key: bool, float64, string, or []string.
type Handler func(args interface{}) error

// HandlerOptions configures a registered action handler.
//
// A Delayed handler never runs during resolution; Execute enqueues the call
// onto the pending queue and it fires at the next scene transition. An
// Accumulates handler's values merge into a list instead of overwriting when
// the same action id appears more than once in one resolution, which is how
// sound lists stack.
type HandlerOptions struct {
	Delayed     bool
	Accumulates bool
}

type registration struct {
	h    Handler
	opts HandlerOptions
}

type queuedAction struct {
	id   string
	args interface{}
}

// PendingQueue holds delayed actions between scene transitions, in FIFO
// order of enqueue. It is constructed once at composition time and shared by
// every Dispatcher that should flush together; tests build their own.
type PendingQueue struct {
	items []queuedAction
}

// NewPendingQueue creates an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// Len returns the number of queued delayed actions.
func (q *PendingQueue) Len() int {
	return len(q.items)
}

// Dispatcher routes parsed actions to registered handlers. Execution is
// fail-soft: unknown ids, handler errors, and handler panics are logged and
// skipped so the rest of a resolution or flush always proceeds.
type Dispatcher struct {
	pending  *PendingQueue
	handlers map[string]registration
	log      *slog.Logger
}

// NewDispatcher creates a Dispatcher backed by q. A nil q gets a private
// queue, which suits tests that flush in isolation.
func NewDispatcher(q *PendingQueue) *Dispatcher {
	if q == nil {
		q = NewPendingQueue()
	}
	return &Dispatcher{
		pending:  q,
		handlers: make(map[string]registration),
		log:      slog.Default(),
	}
}

// SetLogger directs the dispatcher's warning output to l.
func (d *Dispatcher) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	d.log = l
}

// Register binds id to h. Registering an id again replaces the earlier
// handler and options.
func (d *Dispatcher) Register(id string, h Handler, opts HandlerOptions) {
	d.handlers[id] = registration{h: h, opts: opts}
}

// Accumulates reports whether id was registered with list-accumulating
// merge semantics.
func (d *Dispatcher) Accumulates(id string) bool {
	return d.handlers[id].opts.Accumulates
}

// Execute runs the handler for id, or enqueues the call if the handler is
// delayed. An unregistered id logs one warning and is skipped. A handler may
// itself call Execute; a delayed re-entrant call simply appends to the same
// queue.
func (d *Dispatcher) Execute(id string, args interface{}) {
	reg, ok := d.handlers[id]
	if !ok {
		d.log.Warn("no handler registered for action", "action", id)
		return
	}
	if reg.opts.Delayed {
		d.pending.items = append(d.pending.items, queuedAction{id: id, args: args})
		return
	}
	d.run(id, reg.h, args)
}

// FlushDelayed drains the pending queue in FIFO order, invoking each queued
// handler once, and leaves the queue empty. It is the only removal point for
// the queue. Delayed actions enqueued by handlers during the flush drain in
// the same call rather than leaking into the next scene.
func (d *Dispatcher) FlushDelayed() {
	for i := 0; i < len(d.pending.items); i++ {
		qa := d.pending.items[i]
		reg, ok := d.handlers[qa.id]
		if !ok {
			d.log.Warn("no handler registered for queued action", "action", qa.id)
			continue
		}
		d.run(qa.id, reg.h, qa.args)
	}
	d.pending.items = nil
}

// run invokes one handler, containing its error or panic.
func (d *Dispatcher) run(id string, h Handler, args interface{}) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("action handler panicked", "action", id, "args", args, "panic", r)
		}
	}()
	if err := h(args); err != nil {
		d.log.Warn("action handler failed", "action", id, "args", args, "error", err)
	}
}
