package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/gstream/channel"
	"github.com/arloliu/gstream/internal/task"
	"github.com/arloliu/gstream/logger"
	"github.com/arloliu/gstream/transport"
)

// DefaultTickInterval is how often Run calls Sender.Tick.
const DefaultTickInterval = time.Millisecond

// ErrSessionClosed is returned by operations on a closed Session.
var ErrSessionClosed = errors.New("stream: session closed")

// SessionOptions configures a Session. Zero fields take their defaults.
type SessionOptions struct {
	TickInterval time.Duration
	JournalSize  int
	Logger       logger.Logger
	// Transport options applied to every worker, e.g.
	// transport.WithAckDelay or transport.WithChannelFactory.
	Transport []transport.ConnOption
}

// Session wires a Sender to a transport.Worker and drives its ticks.
type Session struct {
	opts    SessionOptions
	logger  logger.Logger
	sender  *Sender
	taskMgr *task.Manager

	mu     sync.Mutex
	worker *transport.Worker

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSession creates a Session with a fresh Sender. Background work derives
// from ctx.
func NewSession(ctx context.Context, opts SessionOptions) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	return &Session{
		opts:    opts,
		logger:  opts.Logger,
		sender:  NewSender(WithLogger(opts.Logger), WithJournalSize(opts.JournalSize)),
		taskMgr: task.NewManager(ctx, opts.Logger),
		closed:  make(chan struct{}),
	}
}

// Sender returns the session's state machine.
func (s *Session) Sender() *Sender {
	return s.sender
}

// Connect disconnects the current worker, if any, and connects a new one to
// id. Inbound lines of the new worker feed Sender.OnAcknowledgment.
func (s *Session) Connect(ctx context.Context, id channel.Identity) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.worker != nil {
		s.disconnectLocked()
	}

	opts := append([]transport.ConnOption{transport.WithLogger(s.logger)}, s.opts.Transport...)
	cfg, err := transport.NewConfig(id.Port, id.BaudRate, opts...)
	if err != nil {
		s.sender.Log(EntryError, err.Error())
		return err
	}

	w, err := transport.NewWorker(ctx, cfg)
	if err != nil {
		return err
	}

	w.AddLineHandler(func(_ *transport.Worker, line string) {
		s.sender.OnAcknowledgment(line)
	})
	w.AddErrorHandler(func(_ *transport.Worker, err error) {
		s.sender.Log(EntryError, err.Error())
	})
	w.AddConnStateHandler(func(w *transport.Worker, connected bool) {
		if connected {
			s.sender.Log(EntryInfo, "Connected.")
			return
		}
		s.sender.Detach(w)
		s.sender.Log(EntryInfo, "Disconnected.")
	})

	s.sender.Log(EntryInfo, fmt.Sprintf("Connecting to %s @ %d…", cfg.Port(), cfg.BaudRate()))
	s.sender.Attach(w)

	if err := w.Connect(); err != nil {
		s.sender.Detach(w)
		return err
	}
	s.worker = w

	return nil
}

// Disconnect closes the current worker. The Sender keeps its state; ticks
// stay ineligible until a new connection is made.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disconnectLocked()
}

// Connected reports whether the current worker is connected.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.worker != nil && s.worker.Connected()
}

// Worker returns the current worker, or nil.
func (s *Session) Worker() *transport.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.worker
}

// Run calls Sender.Tick every TickInterval until ctx is done or the Session
// is closed.
func (s *Session) Run(ctx context.Context) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	_, err := s.taskMgr.StartInterval("tick", func() bool {
		s.sender.Tick()
		return true
	}, s.opts.TickInterval, false)
	if err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case <-s.closed:
	}

	s.taskMgr.Stop()
	s.taskMgr.Wait()

	return runErr
}

// Close stops streaming, disconnects, flushes pending events and ends Run.
// It must not be called from an observer.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.sender.Stop()
		s.Disconnect()
		s.sender.Close()
		close(s.closed)
	})
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Session) disconnectLocked() {
	if s.worker == nil {
		return
	}

	if err := s.worker.Disconnect(); err != nil {
		s.logger.Warn("stream: disconnect", "error", err)
	}
	s.sender.Detach(s.worker)
	s.worker = nil
}
