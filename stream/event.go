package stream

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/gstream/gcode"
	"github.com/arloliu/gstream/internal/queue"
	"github.com/arloliu/gstream/logger"
)

// EventKind identifies the type of an Event.
type EventKind int

const (
	// EventStateChanged carries the new State.
	EventStateChanged EventKind = iota
	// EventProgress carries Index and Total after a line was sent or the
	// program was reset.
	EventProgress
	// EventPosition carries the Position after a line was sent or reset.
	EventPosition
	// EventLog carries a journal Entry.
	EventLog
	// EventCompleted is emitted once every line was sent and acknowledged.
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state"
	case EventProgress:
		return "progress"
	case EventPosition:
		return "position"
	case EventLog:
		return "log"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Event is a notification pushed to subscribers.
type Event struct {
	Kind     EventKind
	State    State
	Index    int
	Total    int
	Position gcode.Position
	Entry    Entry
}

// Fraction returns Index/Total, or 0 for an empty program.
func (e Event) Fraction() float64 {
	if e.Total == 0 {
		return 0
	}

	return float64(e.Index) / float64(e.Total)
}

// Observer receives events. Observers run one at a time on the Sender's
// dispatch goroutine, in the order the state changed, and may call any Sender
// method. A slow observer delays later events but never the Sender itself.
type Observer func(Event)

// dispatcher delivers published events to observers from a single goroutine.
// publish only enqueues, so callers holding the Sender lock never wait on
// observer code.
type dispatcher struct {
	seq    atomic.Uint64
	subs   *xsync.MapOf[uint64, Observer]
	events *queue.Blocking[Event]
	logger logger.Logger

	// inflight counts events published but not yet delivered.
	inflight atomic.Int64

	startOnce sync.Once
	started   atomic.Bool
	stopOnce  sync.Once
	done      chan struct{}
}

func newDispatcher(l logger.Logger) *dispatcher {
	return &dispatcher{
		subs:   xsync.NewMapOf[uint64, Observer](),
		events: queue.NewBlocking[Event](),
		logger: l,
		done:   make(chan struct{}),
	}
}

func (d *dispatcher) add(fn Observer) func() {
	id := d.seq.Add(1)
	d.subs.Store(id, fn)

	d.startOnce.Do(func() {
		d.started.Store(true)
		go d.run()
	})

	return func() { d.subs.Delete(id) }
}

// publish queues events for delivery. It never blocks.
func (d *dispatcher) publish(events []Event) {
	if len(events) == 0 || d.subs.Size() == 0 {
		return
	}

	for _, ev := range events {
		d.inflight.Add(1)
		if !d.events.Enqueue(ev) {
			d.inflight.Add(-1)
		}
	}
}

// close delivers the events already queued, then stops the dispatch
// goroutine. It must not be called from an observer.
func (d *dispatcher) close() {
	d.stopOnce.Do(func() {
		d.events.Close()
		if d.started.Load() {
			<-d.done
		}
	})
}

func (d *dispatcher) run() {
	defer close(d.done)

	for {
		ev, ok := d.events.Dequeue(context.Background())
		if !ok {
			break
		}
		d.deliver(ev)
	}

	for {
		ev, ok := d.events.TryDequeue()
		if !ok {
			return
		}
		d.deliver(ev)
	}
}

// deliver calls every observer in subscription order.
func (d *dispatcher) deliver(ev Event) {
	defer d.inflight.Add(-1)

	ids := make([]uint64, 0, d.subs.Size())
	d.subs.Range(func(id uint64, _ Observer) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if fn, ok := d.subs.Load(id); ok {
			d.call(fn, ev)
		}
	}
}

func (d *dispatcher) call(fn Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("stream: panic in observer", "event", ev.Kind.String(), "panic", r)
		}
	}()

	fn(ev)
}
