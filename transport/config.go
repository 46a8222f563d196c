package transport

import (
	"fmt"
	"time"

	"github.com/arloliu/gstream/channel"
	"github.com/arloliu/gstream/logger"
)

// Default values.
const (
	DefaultPollInterval = channel.DefaultPollInterval
	DefaultAckDelay     = channel.DefaultAckDelay
	DefaultCloseTimeout = 3 * time.Second
)

// Range limits.
const (
	MinPollInterval = 1 * time.Millisecond
	MaxPollInterval = 1 * time.Second

	MinAckDelay = 1 * time.Millisecond
	MaxAckDelay = 10 * time.Second

	MinCloseTimeout = 10 * time.Millisecond
	MaxCloseTimeout = 60 * time.Second
)

// ChannelFactory creates the channel a worker connects through.
type ChannelFactory func(id channel.Identity, opts channel.Options) channel.Channel

// Config holds the configuration of a Worker.
type Config struct {
	port     string
	baudRate int

	// pollInterval bounds a single read wait; it is how quickly the read
	// loop notices a shutdown.
	pollInterval time.Duration
	// ackDelay only affects the simulator.
	ackDelay     time.Duration
	closeTimeout time.Duration

	channelFactory ChannelFactory
	logger         logger.Logger
}

// NewConfig creates a worker configuration for port at baudRate.
//
// An empty port or channel.SimulatedPort selects the simulator. baudRate
// must be positive; rates outside channel.RecommendedBaudRates are accepted.
func NewConfig(port string, baudRate int, opts ...ConnOption) (*Config, error) {
	if baudRate <= 0 {
		return nil, fmt.Errorf("transport: invalid baud rate %d", baudRate)
	}
	if port == "" {
		port = channel.SimulatedPort
	}

	cfg := &Config{
		port:           port,
		baudRate:       baudRate,
		pollInterval:   DefaultPollInterval,
		ackDelay:       DefaultAckDelay,
		closeTimeout:   DefaultCloseTimeout,
		channelFactory: channel.New,
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Identity returns the channel identity the worker connects to.
func (cfg *Config) Identity() channel.Identity {
	return channel.Identity{Port: cfg.port, BaudRate: cfg.baudRate}
}

func (cfg *Config) Port() string { return cfg.port }

func (cfg *Config) BaudRate() int { return cfg.baudRate }

func (cfg *Config) PollInterval() time.Duration { return cfg.pollInterval }

func (cfg *Config) AckDelay() time.Duration { return cfg.ackDelay }

func (cfg *Config) CloseTimeout() time.Duration { return cfg.closeTimeout }

func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

func (cfg *Config) channelOptions() channel.Options {
	return channel.Options{
		PollInterval: cfg.pollInterval,
		AckDelay:     cfg.ackDelay,
		Logger:       cfg.logger,
	}
}

// --- ConnOption ---

// ConnOption is a functional option for configuring a Config.
type ConnOption interface {
	apply(*Config) error
}

type connOptFunc func(*Config) error

func (f connOptFunc) apply(cfg *Config) error { return f(cfg) }

// WithPollInterval sets the channel read timeout.
func WithPollInterval(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *Config) error {
		if d < MinPollInterval || d > MaxPollInterval {
			return fmt.Errorf("transport: poll interval %v out of range [%v, %v]", d, MinPollInterval, MaxPollInterval)
		}
		cfg.pollInterval = d

		return nil
	})
}

// WithAckDelay sets the simulator's acknowledgment delay.
func WithAckDelay(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *Config) error {
		if d < MinAckDelay || d > MaxAckDelay {
			return fmt.Errorf("transport: ack delay %v out of range [%v, %v]", d, MinAckDelay, MaxAckDelay)
		}
		cfg.ackDelay = d

		return nil
	})
}

// WithCloseTimeout bounds how long Disconnect waits for the loops to exit.
func WithCloseTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *Config) error {
		if d < MinCloseTimeout || d > MaxCloseTimeout {
			return fmt.Errorf("transport: close timeout %v out of range [%v, %v]", d, MinCloseTimeout, MaxCloseTimeout)
		}
		cfg.closeTimeout = d

		return nil
	})
}

// WithChannelFactory replaces channel.New, mostly for tests.
func WithChannelFactory(f ChannelFactory) ConnOption {
	return connOptFunc(func(cfg *Config) error {
		if f == nil {
			return fmt.Errorf("transport: nil channel factory")
		}
		cfg.channelFactory = f

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *Config) error {
		if l == nil {
			return fmt.Errorf("transport: nil logger")
		}
		cfg.logger = l

		return nil
	})
}
