package channel

import (
	"errors"
	"sync"
	"time"

	"go.bug.st/serial"
)

// fakePort emulates a serial port: inbound data is pushed with feed, writes are
// recorded, Read honors the configured read timeout.
type fakePort struct {
	mu       sync.Mutex
	inbound  chan []byte
	written  []byte
	timeout  time.Duration
	closed   chan struct{}
	once     sync.Once
	writeErr error
}

func newFakePort() *fakePort {
	return &fakePort{
		inbound: make(chan []byte, 64),
		timeout: time.Second,
		closed:  make(chan struct{}),
	}
}

func (p *fakePort) feed(s string) { p.inbound <- []byte(s) }

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	timeout := p.timeout
	p.mu.Unlock()

	select {
	case <-p.closed:
		return 0, errors.New("port closed")
	case data := <-p.inbound:
		return copy(buf, data), nil
	case <-time.After(timeout):
		return 0, nil
	}
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, data...)

	return len(data), nil
}

func (p *fakePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	p.timeout = t
	p.mu.Unlock()

	return nil
}

func (p *fakePort) ResetInputBuffer() error { return nil }

func (p *fakePort) writtenString() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return string(p.written)
}

// useFakePort swaps openPort for the duration of a test.
func useFakePort(port *fakePort, openErr error) (restore func(), gotMode *serial.Mode) {
	prev := openPort
	gotMode = &serial.Mode{}
	openPort = func(_ string, mode *serial.Mode) (serialPort, error) {
		*gotMode = *mode
		if openErr != nil {
			return nil, openErr
		}
		return port, nil
	}

	return func() { openPort = prev }, gotMode
}
