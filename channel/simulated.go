package channel

import (
	"slices"
	"sync"
	"time"

	"github.com/arloliu/gstream/internal/pool"
	"github.com/arloliu/gstream/internal/queue"
	"github.com/arloliu/gstream/logger"
)

// Simulated is a Channel that stands in for a controller: every written line
// is acknowledged with AckResponse after Options.AckDelay, in write order.
type Simulated struct {
	id     Identity
	opts   Options
	logger logger.Logger

	mu      sync.Mutex
	opened  bool
	closed  bool
	pending queue.Queue[time.Time] // due times of acks not yet read
	written []string

	signal chan struct{}
	done   chan struct{}
}

var _ Channel = (*Simulated)(nil)

// NewSimulated creates an unopened simulator.
func NewSimulated(id Identity, opts Options) *Simulated {
	opts = opts.withDefaults()
	if id.Port == "" {
		id.Port = SimulatedPort
	}

	return &Simulated{
		id:      id,
		opts:    opts,
		logger:  opts.Logger.With("port", id.Port),
		pending: queue.NewSliceQueue[time.Time](16),
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *Simulated) Identity() Identity { return s.id }

func (s *Simulated) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.opened = true
	s.logger.Debug("channel: simulator opened", "ackDelay", s.opts.AckDelay)

	return nil
}

func (s *Simulated) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.pending.Reset()
	close(s.done)

	return nil
}

func (s *Simulated) WriteLine(line string) error {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending.Enqueue(time.Now().Add(s.opts.AckDelay))
	s.written = append(s.written, line)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}

	return nil
}

func (s *Simulated) ReadLine() (string, error) {
	poll := pool.GetTimer(s.opts.PollInterval)
	defer pool.PutTimer(poll)

	for {
		s.mu.Lock()
		if err := s.checkOpen(); err != nil {
			s.mu.Unlock()
			return "", err
		}

		due, waiting := s.pending.Peek()
		if waiting && !time.Now().Before(due) {
			s.pending.Dequeue()
			s.mu.Unlock()

			return AckResponse, nil
		}
		s.mu.Unlock()

		var ackC <-chan time.Time
		var ackTimer *time.Timer
		if waiting {
			ackTimer = pool.GetTimer(time.Until(due))
			ackC = ackTimer.C
		}

		select {
		case <-poll.C:
			if ackTimer != nil {
				pool.PutTimer(ackTimer)
			}
			return "", ErrReadTimeout
		case <-s.done:
			if ackTimer != nil {
				pool.PutTimer(ackTimer)
			}
			return "", ErrClosed
		case <-ackC:
		case <-s.signal:
		}

		if ackTimer != nil {
			pool.PutTimer(ackTimer)
		}
	}
}

// Written returns every line written so far, in order.
func (s *Simulated) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.written)
}

func (s *Simulated) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	if !s.opened {
		return ErrNotOpen
	}

	return nil
}
