package channel

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/gstream/logger"
	"go.bug.st/serial"
)

// serialPort is the subset of serial.Port the channel relies on.
type serialPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// openPort is replaced in tests.
var openPort = func(name string, mode *serial.Mode) (serialPort, error) {
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Serial is a Channel over a physical serial port, 8N1 framing.
type Serial struct {
	id     Identity
	opts   Options
	logger logger.Logger

	mu     sync.RWMutex
	port   serialPort
	closed atomic.Bool

	// read side state, owned by the ReadLine caller
	asm     *lineAssembler
	readBuf []byte

	writeMu sync.Mutex
}

var _ Channel = (*Serial)(nil)

// NewSerial creates an unopened serial channel.
func NewSerial(id Identity, opts Options) *Serial {
	opts = opts.withDefaults()

	return &Serial{
		id:      id,
		opts:    opts,
		logger:  opts.Logger.With("port", id.Port),
		asm:     newLineAssembler(),
		readBuf: make([]byte, 256),
	}
}

func (s *Serial) Identity() Identity { return s.id }

func (s *Serial) Open() error {
	if s.closed.Load() {
		return ErrClosed
	}

	mode := &serial.Mode{
		BaudRate: s.id.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := openPort(s.id.Port, mode)
	if err != nil {
		return fmt.Errorf("channel: open %s: %w", s.id, err)
	}

	if err := port.SetReadTimeout(s.opts.PollInterval); err != nil {
		_ = port.Close()
		return fmt.Errorf("channel: set read timeout on %s: %w", s.id, err)
	}

	// drop boot banners buffered before we attached
	if err := port.ResetInputBuffer(); err != nil {
		s.logger.Debug("channel: reset input buffer failed", "error", err)
	}
	s.asm.reset()

	s.mu.Lock()
	s.port = port
	s.mu.Unlock()

	s.logger.Debug("channel: serial port opened", "baud", s.id.BaudRate)

	return nil
}

func (s *Serial) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()

	if port == nil {
		return nil
	}

	if err := port.Close(); err != nil {
		return fmt.Errorf("channel: close %s: %w", s.id, err)
	}

	return nil
}

func (s *Serial) WriteLine(line string) error {
	port, err := s.getPort()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data := []byte(line + "\n")
	for written := 0; written < len(data); {
		n, err := port.Write(data[written:])
		if err != nil {
			if s.closed.Load() {
				return ErrClosed
			}

			return fmt.Errorf("channel: write %s: %w", s.id, err)
		}
		if n == 0 {
			return fmt.Errorf("channel: write %s: %w", s.id, io.ErrShortWrite)
		}
		written += n
	}

	return nil
}

func (s *Serial) ReadLine() (string, error) {
	if line, ok := s.asm.next(); ok {
		return line, nil
	}

	port, err := s.getPort()
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(s.opts.PollInterval)
	for {
		n, err := port.Read(s.readBuf)
		if err != nil {
			if s.closed.Load() {
				return "", ErrClosed
			}

			return "", fmt.Errorf("channel: read %s: %w", s.id, err)
		}

		if n == 0 { // read timeout elapsed
			return "", ErrReadTimeout
		}

		s.asm.feed(s.readBuf[:n])
		if line, ok := s.asm.next(); ok {
			return line, nil
		}

		if time.Now().After(deadline) {
			return "", ErrReadTimeout
		}
	}
}

func (s *Serial) getPort() (serialPort, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.port == nil {
		return nil, ErrNotOpen
	}

	return s.port, nil
}
