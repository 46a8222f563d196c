package stream

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arloliu/gstream/gcode"
	"github.com/arloliu/gstream/logger"
)

// Immediate commands understood by Grbl-style controllers at any time.
const (
	FeedHold    = "!"
	CycleResume = "~"
	Unlock      = "$X"
	Home        = "$H"
)

var (
	// ErrNotConnected is returned when no connected transport is attached.
	ErrNotConnected = errors.New("stream: not connected")
	// ErrNoProgram is returned by Start when the loaded program is empty.
	ErrNoProgram = errors.New("stream: no program loaded")
	// ErrAlreadyRunning is returned by Start and Rewind while streaming.
	ErrAlreadyRunning = errors.New("stream: already running")
)

// State is the externally visible state of a Sender.
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Transport is where a Sender queues lines. *transport.Worker satisfies it.
type Transport interface {
	Send(line string) error
	Connected() bool
}

// Option configures a Sender.
type Option func(*Sender)

// WithLogger sets the Sender logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJournalSize sets how many log entries the journal retains.
func WithJournalSize(n int) Option {
	return func(s *Sender) { s.journal = NewJournal(n) }
}

// Sender is the streaming state machine. All methods are safe for concurrent
// use; they are serialized by an internal lock.
type Sender struct {
	mu sync.Mutex

	program  gcode.Program
	index    int
	running  bool
	paused   bool
	okToSend bool
	position gcode.Position

	transport Transport

	journal *Journal
	events  *dispatcher
	logger  logger.Logger

	// pending collects the events of the current operation while mu is held.
	pending []Event
}

// NewSender creates an idle Sender with an empty program.
func NewSender(opts ...Option) *Sender {
	s := &Sender{
		okToSend: true,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.journal == nil {
		s.journal = NewJournal(DefaultJournalSize)
	}
	s.events = newDispatcher(s.logger)

	return s
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it.
func (s *Sender) Subscribe(fn Observer) (unsubscribe func()) {
	return s.events.add(fn)
}

// Close delivers the events still queued for observers and stops event
// dispatch. Later events are dropped. Close must not be called from an
// observer.
func (s *Sender) Close() {
	s.events.close()
}

// Journal returns the session log.
func (s *Sender) Journal() *Journal {
	return s.journal
}

// Attach makes t the transport used by Tick and SendImmediate.
func (s *Sender) Attach(t Transport) {
	s.mu.Lock()
	s.transport = t
	s.mu.Unlock()
}

// Detach removes t if it is the attached transport. Detaching while a line
// is unacknowledged leaves the stream stalled until Stop; the stall is
// journaled as an error.
func (s *Sender) Detach(t Transport) {
	s.mu.Lock()
	if s.transport != t || t == nil {
		s.mu.Unlock()
		return
	}
	s.transport = nil

	if s.running && !s.okToSend {
		s.logLocked(EntryError, fmt.Sprintf("stream stalled: connection lost with line %d unacknowledged", s.index))
		s.logger.Warn("stream: connection lost with a line unacknowledged", "index", s.index, "total", s.program.Len())
	}
	s.unlockAndPublish()
}

// Load replaces the program and resets the streaming state. It is valid in
// any state and stops a running stream.
func (s *Sender) Load(p gcode.Program) {
	s.mu.Lock()
	prev := s.stateLocked()

	s.program = p
	s.index = 0
	s.running = false
	s.paused = false
	s.okToSend = true
	s.position = gcode.Position{}

	s.logLocked(EntryInfo, fmt.Sprintf("Loaded %d G-code lines", p.Len()))
	s.stateChangedLocked(prev)
	s.progressLocked()
	s.positionLocked()
	s.unlockAndPublish()
}

// Start begins streaming from the first line.
//
// It fails with ErrAlreadyRunning while streaming, ErrNotConnected without a
// connected transport and ErrNoProgram for an empty program. The index and
// the position are rewound, so a restart always begins at line zero.
func (s *Sender) Start() error {
	s.mu.Lock()

	var err error
	switch {
	case s.running:
		err = ErrAlreadyRunning
	case s.transport == nil || !s.transport.Connected():
		err = ErrNotConnected
	case s.program.IsEmpty():
		err = ErrNoProgram
	}
	if err != nil {
		s.logLocked(EntryError, "start rejected: "+err.Error())
		s.unlockAndPublish()
		s.logger.Warn("stream: start rejected", "error", err)

		return err
	}

	prev := s.stateLocked()
	s.index = 0
	s.position = gcode.Position{}
	s.running = true
	s.paused = false
	s.okToSend = true

	s.logLocked(EntryInfo, fmt.Sprintf("Streaming %d lines", s.program.Len()))
	s.stateChangedLocked(prev)
	s.progressLocked()
	s.positionLocked()
	s.unlockAndPublish()

	return nil
}

// Pause holds streaming. It has no effect unless running.
func (s *Sender) Pause() {
	s.setPaused(func(bool) bool { return true })
}

// Resume continues a paused stream. It has no effect unless running.
func (s *Sender) Resume() {
	s.setPaused(func(bool) bool { return false })
}

// TogglePause flips between Running and Paused. It has no effect unless
// running.
func (s *Sender) TogglePause() {
	s.setPaused(func(paused bool) bool { return !paused })
}

func (s *Sender) setPaused(next func(paused bool) bool) {
	s.mu.Lock()
	if s.running {
		prev := s.stateLocked()
		s.paused = next(s.paused)
		s.stateChangedLocked(prev)
	}
	s.unlockAndPublish()
}

// Stop ends streaming. The index is kept for inspection; the position is
// reset to the origin.
func (s *Sender) Stop() {
	s.mu.Lock()
	prev := s.stateLocked()
	wasRunning := s.running

	s.running = false
	s.paused = false
	s.okToSend = true
	s.position = gcode.Position{}

	if wasRunning {
		s.logLocked(EntryInfo, fmt.Sprintf("Stopped at line %d of %d", s.index, s.program.Len()))
	}
	s.stateChangedLocked(prev)
	s.positionLocked()
	s.unlockAndPublish()
}

// Rewind resets the index to zero. It fails with ErrAlreadyRunning while
// streaming.
func (s *Sender) Rewind() error {
	s.mu.Lock()
	if s.running {
		s.unlockAndPublish()
		return ErrAlreadyRunning
	}

	s.index = 0
	s.progressLocked()
	s.unlockAndPublish()

	return nil
}

// OnAcknowledgment handles one inbound line. A line starting with "ok",
// ignoring case and surrounding whitespace, reopens the gate. Anything else
// is only logged.
func (s *Sender) OnAcknowledgment(line string) {
	s.mu.Lock()
	s.logLocked(EntryReceived, line)

	if IsAcknowledgment(line) {
		s.okToSend = true
	} else if s.running {
		s.logger.Warn("stream: controller reported without acknowledging", "line", line, "index", s.index)
	}
	s.unlockAndPublish()
}

// Tick sends the next line when the stream is running, not paused, the gate
// is open and the transport is connected. Once every line was sent and the
// last one acknowledged, the Sender returns to Idle. Tick never blocks.
func (s *Sender) Tick() {
	s.mu.Lock()
	if !s.running || s.paused || !s.okToSend || s.transport == nil || !s.transport.Connected() {
		s.mu.Unlock()
		return
	}

	if s.index >= s.program.Len() {
		prev := s.stateLocked()
		s.running = false
		s.paused = false
		s.logLocked(EntryInfo, "Completed.")
		s.stateChangedLocked(prev)
		s.pending = append(s.pending, Event{Kind: EventCompleted, Index: s.index, Total: s.program.Len()})
		s.unlockAndPublish()
		s.logger.Info("stream: completed", "lines", s.index)

		return
	}

	line := s.program.Line(s.index)
	if err := s.transport.Send(line); err != nil {
		s.logLocked(EntryError, fmt.Sprintf("send %q: %v", line, err))
		s.unlockAndPublish()
		s.logger.Error("stream: failed to queue line", "index", s.index, "error", err)

		return
	}

	s.position = s.position.Advance(line)
	s.okToSend = false
	s.index++

	s.logLocked(EntrySent, line)
	s.progressLocked()
	s.positionLocked()
	s.unlockAndPublish()
}

// SendImmediate queues cmd on the transport, bypassing the gate. The gate and
// the index are not touched.
func (s *Sender) SendImmediate(cmd string) error {
	s.mu.Lock()
	if s.transport == nil || !s.transport.Connected() {
		s.logLocked(EntryError, fmt.Sprintf("immediate %q: %v", cmd, ErrNotConnected))
		s.unlockAndPublish()

		return ErrNotConnected
	}

	if err := s.transport.Send(cmd); err != nil {
		err = fmt.Errorf("stream: send immediate %q: %w", cmd, err)
		s.logLocked(EntryError, err.Error())
		s.unlockAndPublish()

		return err
	}

	s.logLocked(EntryImmediate, cmd)
	s.unlockAndPublish()

	return nil
}

// Log records an informational or error line in the journal and notifies
// observers.
func (s *Sender) Log(kind EntryKind, text string) {
	s.mu.Lock()
	s.logLocked(kind, text)
	s.unlockAndPublish()
}

// State returns Idle, Running or Paused.
func (s *Sender) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateLocked()
}

// Index returns the number of lines sent since the last reset.
func (s *Sender) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index
}

// Progress returns the index and the program length.
func (s *Sender) Progress() (index, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index, s.program.Len()
}

// Position returns the position derived from the lines sent so far.
func (s *Sender) Position() gcode.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.position
}

// Program returns the loaded program.
func (s *Sender) Program() gcode.Program {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.program
}

// IsAcknowledgment reports whether line satisfies the flow-control gate.
func IsAcknowledgment(line string) bool {
	line = strings.TrimSpace(line)

	return len(line) >= 2 && strings.EqualFold(line[:2], "ok")
}

func (s *Sender) stateLocked() State {
	switch {
	case s.running && s.paused:
		return Paused
	case s.running:
		return Running
	default:
		return Idle
	}
}

func (s *Sender) stateChangedLocked(prev State) {
	if cur := s.stateLocked(); cur != prev {
		s.pending = append(s.pending, Event{Kind: EventStateChanged, State: cur})
	}
}

func (s *Sender) progressLocked() {
	s.pending = append(s.pending, Event{Kind: EventProgress, Index: s.index, Total: s.program.Len()})
}

func (s *Sender) positionLocked() {
	s.pending = append(s.pending, Event{Kind: EventPosition, Position: s.position})
}

func (s *Sender) logLocked(kind EntryKind, text string) {
	e := Entry{Time: time.Now(), Kind: kind, Text: text}
	s.journal.append(e)
	s.pending = append(s.pending, Event{Kind: EventLog, Entry: e})
}

// unlockAndPublish hands the events collected under mu to the dispatcher,
// preserving state order, and releases mu.
func (s *Sender) unlockAndPublish() {
	events := s.pending
	s.pending = nil
	s.events.publish(events)
	s.mu.Unlock()
}
