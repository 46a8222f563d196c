package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/arloliu/gstream/channel"
	"github.com/arloliu/gstream/internal/queue"
	"github.com/arloliu/gstream/internal/task"
	"github.com/arloliu/gstream/logger"
)

// ConnStateHandler is invoked with true once the channel is open and with
// false once the connection ended, or when opening it failed.
type ConnStateHandler func(w *Worker, connected bool)

// LineHandler is invoked, in arrival order, with every non-empty inbound line
// after whitespace trimming.
type LineHandler func(w *Worker, line string)

// ErrorHandler is invoked with open and I/O failures.
type ErrorHandler func(w *Worker, err error)

// Worker exchanges lines with one controller over one channel.
type Worker struct {
	cfg     *Config
	logger  logger.Logger
	taskMgr *task.Manager

	state atomicState
	used  atomic.Bool

	chMu sync.Mutex
	ch   channel.Channel

	outbound *queue.Blocking[string]

	handlerMu     sync.RWMutex
	stateHandlers []ConnStateHandler
	lineHandlers  []LineHandler
	errHandlers   []ErrorHandler

	closeOnce  sync.Once
	closeErr   error
	closed     chan struct{}
	markClosed sync.Once

	metrics Metrics
}

// NewWorker creates an unconnected worker. Its goroutines derive from ctx.
func NewWorker(ctx context.Context, cfg *Config) (*Worker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	l := cfg.logger.With("port", cfg.port)

	return &Worker{
		cfg:      cfg,
		logger:   l,
		taskMgr:  task.NewManager(ctx, l),
		outbound: queue.NewBlocking[string](),
		closed:   make(chan struct{}),
	}, nil
}

// AddConnStateHandler registers h. Register handlers before Connect.
func (w *Worker) AddConnStateHandler(h ConnStateHandler) {
	w.handlerMu.Lock()
	w.stateHandlers = append(w.stateHandlers, h)
	w.handlerMu.Unlock()
}

// AddLineHandler registers h. Register handlers before Connect.
func (w *Worker) AddLineHandler(h LineHandler) {
	w.handlerMu.Lock()
	w.lineHandlers = append(w.lineHandlers, h)
	w.handlerMu.Unlock()
}

// AddErrorHandler registers h. Register handlers before Connect.
func (w *Worker) AddErrorHandler(h ErrorHandler) {
	w.handlerMu.Lock()
	w.errHandlers = append(w.errHandlers, h)
	w.handlerMu.Unlock()
}

// Connect opens the channel and starts the read and write loops.
//
// On failure the error handlers and the connection state handlers (with
// false) are invoked, the worker is closed and the error is returned. There
// is no retry.
func (w *Worker) Connect() error {
	if !w.used.CompareAndSwap(false, true) || !w.state.toOpening() {
		return ErrWorkerUsed
	}

	id := w.cfg.Identity()
	ch := w.cfg.channelFactory(id, w.cfg.channelOptions())

	w.logger.Debug("transport: opening channel", "channel", id.String())

	if err := ch.Open(); err != nil {
		_ = ch.Close()
		if w.state.state.CompareAndSwap(uint32(OpeningState), uint32(ClosedState)) {
			w.finishClose()
		}

		err = fmt.Errorf("transport: open %s: %w", id, err)
		w.logger.Error("transport: failed to open channel", "error", err)
		w.emitError(err)
		w.emitConnState(false)

		return err
	}

	w.chMu.Lock()
	w.ch = ch
	w.chMu.Unlock()

	if !w.state.toConnected() {
		// Disconnect raced with opening.
		_ = ch.Close()
		return ErrNotConnected
	}

	w.logger.Info("transport: connected", "channel", id.String())
	w.emitConnState(true)

	if err := w.startLoops(ch); err != nil {
		w.fail(fmt.Errorf("transport: start loops: %w", err))
		return err
	}

	return nil
}

// Send queues line for the write loop. It never blocks. Lines are written in
// the order Send was called.
func (w *Worker) Send(line string) error {
	if !w.state.IsConnected() {
		return ErrNotConnected
	}

	w.metrics.incQueueDepth()
	if !w.outbound.Enqueue(line) {
		w.metrics.decQueueDepth()
		return ErrNotConnected
	}

	return nil
}

// Disconnect stops both loops, closes the channel and invokes the connection
// state handlers with false. Lines still queued are dropped. Calling
// Disconnect again, or after the connection failed, returns the result of
// the first shutdown.
func (w *Worker) Disconnect() error {
	w.used.Store(true)
	return w.shutdown()
}

// Done is closed once the worker is fully closed.
func (w *Worker) Done() <-chan struct{} {
	return w.closed
}

// Connected reports whether the channel is open and the loops are running.
func (w *Worker) Connected() bool {
	return w.state.IsConnected()
}

// State returns the lifecycle state.
func (w *Worker) State() State {
	return w.state.Get()
}

// Identity returns the channel identity.
func (w *Worker) Identity() channel.Identity {
	return w.cfg.Identity()
}

// GetMetrics returns the worker metrics.
func (w *Worker) GetMetrics() *Metrics {
	return &w.metrics
}

// GetLogger returns the worker logger.
func (w *Worker) GetLogger() logger.Logger {
	return w.logger
}

func (w *Worker) startLoops(ch channel.Channel) error {
	if err := w.taskMgr.Start("readLoop", func() bool { return w.readOnce(ch) }); err != nil {
		return err
	}

	return w.taskMgr.Start("writeLoop", func() bool { return w.writeOnce(ch) })
}

func (w *Worker) readOnce(ch channel.Channel) bool {
	line, err := ch.ReadLine()
	if err != nil {
		if errors.Is(err, channel.ErrReadTimeout) {
			return true
		}
		if !w.state.IsConnected() {
			return false
		}

		w.fail(fmt.Errorf("transport: read: %w", err))

		return false
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	w.metrics.incLinesReceived()
	w.logger.Debug("transport: received", "line", line)
	w.emitLine(line)

	return true
}

func (w *Worker) writeOnce(ch channel.Channel) bool {
	line, ok := w.outbound.Dequeue(w.taskMgr.Context())
	if !ok {
		return false
	}
	w.metrics.decQueueDepth()

	if err := ch.WriteLine(line); err != nil {
		if !w.state.IsConnected() {
			return false
		}

		w.fail(fmt.Errorf("transport: write %q: %w", line, err))

		return false
	}

	w.metrics.incLinesSent()
	w.logger.Debug("transport: sent", "line", line)

	return true
}

// fail reports a fatal connection error and shuts the worker down
// asynchronously, since it runs on one of the loops shutdown waits for.
func (w *Worker) fail(err error) {
	w.logger.Error("transport: connection failed", "error", err)
	w.emitError(err)

	go func() { _ = w.shutdown() }()
}

func (w *Worker) shutdown() error {
	w.closeOnce.Do(func() {
		prev, ok := w.state.toClosing()
		if !ok {
			// Connect failed and already closed the worker.
			return
		}

		w.logger.Debug("transport: start to close", "state", prev.String())

		w.taskMgr.Stop()
		w.outbound.Close()

		w.chMu.Lock()
		ch := w.ch
		w.chMu.Unlock()

		var err error
		if ch != nil {
			if cerr := ch.Close(); cerr != nil {
				err = fmt.Errorf("transport: close channel: %w", cerr)
			}
		}

		if !w.taskMgr.WaitTimeout(w.cfg.closeTimeout) {
			w.logger.Error("transport: close timeout", "timeout", w.cfg.closeTimeout)
			err = errors.Join(err, ErrCloseTimeout)
		}

		w.closeErr = err
		w.state.Set(ClosedState)
		w.finishClose()

		if prev == ConnectedState {
			w.logger.Info("transport: disconnected")
			w.emitConnState(false)
		}
	})

	return w.closeErr
}

func (w *Worker) finishClose() {
	w.markClosed.Do(func() {
		w.metrics.QueueDepth.Store(0)
		close(w.closed)
	})
}

func (w *Worker) emitConnState(connected bool) {
	w.handlerMu.RLock()
	handlers := w.stateHandlers
	w.handlerMu.RUnlock()

	for _, h := range handlers {
		h(w, connected)
	}
}

func (w *Worker) emitLine(line string) {
	w.handlerMu.RLock()
	handlers := w.lineHandlers
	w.handlerMu.RUnlock()

	for _, h := range handlers {
		h(w, line)
	}
}

func (w *Worker) emitError(err error) {
	w.metrics.incErrCount()

	w.handlerMu.RLock()
	handlers := w.errHandlers
	w.handlerMu.RUnlock()

	for _, h := range handlers {
		h(w, err)
	}
}
