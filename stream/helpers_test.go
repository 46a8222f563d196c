package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/gstream/gcode"
	"github.com/arloliu/gstream/logger"
)

type fakeTransport struct {
	mu        sync.Mutex
	sent      []string
	connected bool
	sendErr   error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{connected: true}
}

func (t *fakeTransport) Send(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, line)

	return nil
}

func (t *fakeTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.connected
}

func (t *fakeTransport) setConnected(v bool) {
	t.mu.Lock()
	t.connected = v
	t.mu.Unlock()
}

func (t *fakeTransport) setSendErr(err error) {
	t.mu.Lock()
	t.sendErr = err
	t.mu.Unlock()
}

func (t *fakeTransport) Sent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]string(nil), t.sent...)
}

// eventLog collects events of the given kinds.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) observe(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) ofKind(kind EventKind) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Event
	for _, ev := range l.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}

	return out
}

func (l *eventLog) states() []State {
	var out []State
	for _, ev := range l.ofKind(EventStateChanged) {
		out = append(out, ev.State)
	}

	return out
}

func newTestSender(t *testing.T, lines ...string) (*Sender, *fakeTransport, *eventLog) {
	t.Helper()

	s := NewSender(WithLogger(logger.NewNopMockLogger()), WithJournalSize(64))
	t.Cleanup(s.Close)
	tr := newFakeTransport()
	s.Attach(tr)

	events := &eventLog{}
	s.Subscribe(events.observe)

	if len(lines) > 0 {
		s.Load(gcode.NewProgram(lines...))
	}

	return s, tr, events
}

// flushEvents waits until every published event reached the observers.
func flushEvents(t *testing.T, s *Sender) {
	t.Helper()

	require.Eventually(t, func() bool { return s.events.inflight.Load() == 0 }, time.Second, time.Millisecond)
}
