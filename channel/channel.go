package channel

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/arloliu/gstream/logger"
)

// SimulatedPort is the port identifier that selects the built-in simulator.
const SimulatedPort = "SIMULATED"

// AckResponse is the acknowledgment line a controller sends for every
// accepted command.
const AckResponse = "ok"

// Default values for Options.
const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultAckDelay     = 20 * time.Millisecond
)

// RecommendedBaudRates lists the rates commonly supported by hobby CNC firmware.
var RecommendedBaudRates = []int{9600, 57600, 115200, 250000}

var (
	// ErrClosed is returned by operations on a closed channel.
	ErrClosed = errors.New("channel: closed")
	// ErrNotOpen is returned by I/O on a channel that was never opened.
	ErrNotOpen = errors.New("channel: not open")
	// ErrReadTimeout is returned by ReadLine when no complete line arrived
	// within one poll interval. It is not a failure.
	ErrReadTimeout = errors.New("channel: read timeout")
)

// Identity selects a channel: a port identifier and a baud rate.
type Identity struct {
	Port     string
	BaudRate int
}

// IsSimulated reports whether id selects the simulator.
func (id Identity) IsSimulated() bool {
	return id.Port == "" || id.Port == SimulatedPort
}

func (id Identity) String() string {
	port := id.Port
	if port == "" {
		port = SimulatedPort
	}

	return fmt.Sprintf("%s@%d", port, id.BaudRate)
}

// IsRecommendedBaudRate reports whether rate is one of RecommendedBaudRates.
func IsRecommendedBaudRate(rate int) bool {
	return slices.Contains(RecommendedBaudRates, rate)
}

// Channel is a full-duplex, line-oriented connection to a controller.
type Channel interface {
	// Open acquires the underlying resource.
	Open() error
	// Close releases the resource and unblocks a pending ReadLine.
	// Calling Close more than once is a no-op.
	Close() error
	// WriteLine writes line terminated by a newline.
	WriteLine(line string) error
	// ReadLine returns the next inbound line without its terminator.
	// It returns ErrReadTimeout if no line completed within the poll interval
	// and ErrClosed once the channel is closed.
	ReadLine() (string, error)
	// Identity returns the identity the channel was created with.
	Identity() Identity
}

// Options tunes channel behavior. Zero fields take their defaults.
type Options struct {
	// PollInterval bounds a single ReadLine wait.
	PollInterval time.Duration
	// AckDelay is the simulator's delay between a write and its "ok".
	AckDelay time.Duration
	// Logger receives channel diagnostics.
	Logger logger.Logger
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.AckDelay <= 0 {
		o.AckDelay = DefaultAckDelay
	}
	if o.Logger == nil {
		o.Logger = logger.GetLogger()
	}

	return o
}

// New creates the Channel selected by id. The channel is not opened.
func New(id Identity, opts Options) Channel {
	if id.IsSimulated() {
		return NewSimulated(id, opts)
	}

	return NewSerial(id, opts)
}
