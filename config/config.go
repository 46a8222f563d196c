// Package config loads the gstream YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/arloliu/gstream/channel"
	"github.com/arloliu/gstream/logger"
	"github.com/arloliu/gstream/stream"
	"github.com/arloliu/gstream/transport"
)

const (
	// DefaultBaseDir is the configuration directory under the user's home.
	DefaultBaseDir = ".gstream"
	// DefaultConfigFile is the default configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Config holds the CLI defaults. Command-line flags override it.
type Config struct {
	// Port is a serial port name or SIMULATED.
	Port string `yaml:"port"`
	// Baud is the serial baud rate.
	Baud int `yaml:"baud"`

	TickInterval Duration `yaml:"tick_interval"`
	AckDelay     Duration `yaml:"ack_delay"`
	PollInterval Duration `yaml:"poll_interval"`
	CloseTimeout Duration `yaml:"close_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
	// LogFile, when set, receives JSON logs in addition to stderr.
	LogFile string `yaml:"log_file,omitempty"`
	// JournalSize bounds the in-memory session log.
	JournalSize int `yaml:"journal_size,omitempty"`

	path string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:         channel.SimulatedPort,
		Baud:         115200,
		TickInterval: Duration(stream.DefaultTickInterval),
		AckDelay:     Duration(transport.DefaultAckDelay),
		PollInterval: Duration(transport.DefaultPollInterval),
		CloseTimeout: Duration(transport.DefaultCloseTimeout),
		LogLevel:     "info",
		JournalSize:  stream.DefaultJournalSize,
	}
}

// DefaultPath returns ~/.gstream/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: get home directory: %w", err)
	}

	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// Load reads path over Default. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config: no path")
	}

	return c.SaveAs(c.path)
}

// SaveAs writes the configuration to path, creating its directory.
func (c *Config) SaveAs(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.path = path

	return nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// Validate checks every field against the limits of the components it
// configures.
func (c *Config) Validate() error {
	var errs []error

	if c.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud %d must be positive", c.Baud))
	}
	if c.TickInterval.Std() <= 0 || c.TickInterval.Std() > time.Second {
		errs = append(errs, fmt.Errorf("tick_interval %v out of range (0, 1s]", c.TickInterval))
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if c.JournalSize < 0 {
		errs = append(errs, fmt.Errorf("journal_size %d must not be negative", c.JournalSize))
	}

	// The transport applies its own ranges.
	if _, err := transport.NewConfig(c.Port, max(c.Baud, 1), c.TransportOptions()...); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// TransportOptions returns the worker options the configuration implies.
func (c *Config) TransportOptions() []transport.ConnOption {
	return []transport.ConnOption{
		transport.WithAckDelay(c.AckDelay.Std()),
		transport.WithPollInterval(c.PollInterval.Std()),
		transport.WithCloseTimeout(c.CloseTimeout.Std()),
	}
}

// Identity returns the channel the configuration selects.
func (c *Config) Identity() channel.Identity {
	return channel.Identity{Port: c.Port, BaudRate: c.Baud}
}
