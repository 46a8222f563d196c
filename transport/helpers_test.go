package transport

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/gstream/channel"
	"github.com/arloliu/gstream/logger"
	"github.com/stretchr/testify/require"
)

// fakeChannel is a scripted channel.Channel. Inbound lines are pushed with
// push; written lines are collected.
type fakeChannel struct {
	id       channel.Identity
	openErr  error
	inbound  chan string
	closed   chan struct{}
	once     sync.Once
	poll     time.Duration
	mu       sync.Mutex
	written  []string
	writeErr error
	readErr  error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		id:      channel.Identity{Port: "fake0", BaudRate: 115200},
		inbound: make(chan string, 64),
		closed:  make(chan struct{}),
		poll:    5 * time.Millisecond,
	}
}

func (c *fakeChannel) push(line string) { c.inbound <- line }

func (c *fakeChannel) Open() error { return c.openErr }

func (c *fakeChannel) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeChannel) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return channel.ErrClosed
	default:
	}

	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, line)

	return nil
}

func (c *fakeChannel) ReadLine() (string, error) {
	c.mu.Lock()
	readErr := c.readErr
	c.mu.Unlock()
	if readErr != nil {
		return "", readErr
	}

	select {
	case <-c.closed:
		return "", channel.ErrClosed
	case line := <-c.inbound:
		return line, nil
	case <-time.After(c.poll):
		return "", channel.ErrReadTimeout
	}
}

func (c *fakeChannel) Identity() channel.Identity { return c.id }

func (c *fakeChannel) setReadErr(err error) {
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
}

func (c *fakeChannel) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.written...)
}

// recorder collects worker events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	lines  []string
	errs   []error
}

func (r *recorder) attach(w *Worker) {
	w.AddConnStateHandler(func(_ *Worker, connected bool) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if connected {
			r.events = append(r.events, "connected")
		} else {
			r.events = append(r.events, "disconnected")
		}
	})
	w.AddLineHandler(func(_ *Worker, line string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, "line")
		r.lines = append(r.lines, line)
	})
	w.AddErrorHandler(func(_ *Worker, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, "error")
		r.errs = append(r.errs, err)
	})
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.lines...)
}

func (r *recorder) Errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]error(nil), r.errs...)
}

func newFakeWorker(t *testing.T, fc *fakeChannel) (*Worker, *recorder) {
	t.Helper()

	cfg, err := NewConfig(fc.id.Port, fc.id.BaudRate,
		WithLogger(logger.NewNopMockLogger()),
		WithCloseTimeout(time.Second),
		WithChannelFactory(func(channel.Identity, channel.Options) channel.Channel { return fc }),
	)
	require.NoError(t, err)

	w, err := NewWorker(t.Context(), cfg)
	require.NoError(t, err)

	rec := &recorder{}
	rec.attach(w)

	return w, rec
}

var errBoom = errors.New("boom")
