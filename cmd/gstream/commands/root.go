package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/gstream/config"
	"github.com/arloliu/gstream/logger"
)

var (
	cfgFile  string
	logLevel string
	logFile  string

	globalConfig *config.Config
	logSink      io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "gstream",
	Short: "Acknowledgment-gated G-code sender",
	Long: `gstream streams G-code programs to Grbl-style controllers.

Every program line is sent only after the controller acknowledged the
previous one with "ok". Feed hold, cycle resume, unlock and home are sent
immediately, regardless of the stream.

Defaults are stored in ~/.gstream/config.yaml; flags override them.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { teardown() },
}

// Command returns the root cobra command for mounting into a parent CLI.
func Command() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.gstream/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(sendCmd)
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	level, ok := logger.ParseLevel(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	opts := logger.Options{Level: level, Output: cmd.ErrOrStderr(), Console: true}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		opts.File = f
		logSink = f
	}
	logger.SetLogger(logger.New(opts))

	globalConfig = cfg

	return nil
}

func teardown() {
	if logSink != nil {
		_ = logSink.Close()
		logSink = nil
	}
}
