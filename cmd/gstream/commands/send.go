package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/gstream/channel"
	"github.com/arloliu/gstream/gcode"
	"github.com/arloliu/gstream/logger"
	"github.com/arloliu/gstream/stream"
)

var (
	sendPort    string
	sendBaud    int
	sendVerbose bool
)

var sendCmd = &cobra.Command{
	Use:   "send FILE",
	Short: "Stream a program to a controller",
	Long: `Stream a G-code file to a controller, one acknowledged line at a time.

While streaming, commands are read from standard input, one per line:

  !        feed hold
  ~        cycle resume
  $X       unlock
  $H       home
  pause    stop sending program lines
  resume   continue sending program lines
  stop     abort the stream

Ctrl-C aborts the stream.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendPort, "port", "p", "", "serial port, or SIMULATED (default from config)")
	sendCmd.Flags().IntVarP(&sendBaud, "baud", "b", 0, "baud rate (default from config)")
	sendCmd.Flags().BoolVarP(&sendVerbose, "verbose", "v", false, "print every sent and received line")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg := *globalConfig
	if sendPort != "" {
		cfg.Port = sendPort
	}
	if sendBaud != 0 {
		cfg.Baud = sendBaud
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	program, err := gcode.LoadFile(args[0])
	if err != nil {
		return err
	}
	if program.IsEmpty() {
		return fmt.Errorf("%s: %w", args[0], stream.ErrNoProgram)
	}

	l := logger.GetLogger()
	if !channel.IsRecommendedBaudRate(cfg.Baud) {
		l.Warn("baud rate is not one of the usual controller rates", "baud", cfg.Baud, "recommended", channel.RecommendedBaudRates)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := stream.NewSession(ctx, stream.SessionOptions{
		TickInterval: cfg.TickInterval.Std(),
		JournalSize:  cfg.JournalSize,
		Logger:       l,
		Transport:    cfg.TransportOptions(),
	})
	defer sess.Close()

	sender := sess.Sender()
	out := &lockedWriter{w: cmd.OutOrStdout()}
	completed := make(chan struct{})
	sender.Subscribe(progressPrinter(out, completed))

	go func() { _ = sess.Run(ctx) }()

	if err := sess.Connect(ctx, cfg.Identity()); err != nil {
		return err
	}
	worker := sess.Worker()

	sender.Load(program)
	if err := sender.Start(); err != nil {
		return err
	}
	begin := time.Now()

	input := readCommands(ctx, cmd.InOrStdin())
	for {
		select {
		case <-completed:
			fmt.Fprintf(out, "sent %d lines in %s\n", program.Len(), time.Since(begin).Round(time.Millisecond))
			return nil

		case <-ctx.Done():
			sender.Stop()
			index, total := sender.Progress()

			return fmt.Errorf("interrupted at line %d of %d", index, total)

		case <-worker.Done():
			index, total := sender.Progress()
			return fmt.Errorf("connection lost at line %d of %d", index, total)

		case line, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			if done := handleCommand(sender, line, out); done {
				index, total := sender.Progress()
				return fmt.Errorf("stopped at line %d of %d", index, total)
			}
		}
	}
}

// handleCommand applies one operator command. It returns true for stop.
func handleCommand(sender *stream.Sender, line string, out io.Writer) bool {
	switch cmd := strings.TrimSpace(line); strings.ToLower(cmd) {
	case "":
	case stream.FeedHold, stream.CycleResume, "$x", "$h":
		if err := sender.SendImmediate(strings.ToUpper(cmd)); err != nil {
			fmt.Fprintln(out, errStyle.Render(err.Error()))
		}
	case "pause":
		sender.Pause()
	case "resume":
		sender.Resume()
	case "stop":
		sender.Stop()
		return true
	default:
		fmt.Fprintln(out, errStyle.Render(fmt.Sprintf("unknown command %q", cmd)))
	}

	return false
}

// readCommands delivers stdin lines until EOF.
func readCommands(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// progressPrinter prints journal entries and whole-percent progress steps,
// and closes completed on completion.
func progressPrinter(out io.Writer, completed chan<- struct{}) stream.Observer {
	var (
		once    sync.Once
		percent = -1
	)

	return func(ev stream.Event) {
		switch ev.Kind {
		case stream.EventLog:
			switch ev.Entry.Kind {
			case stream.EntrySent, stream.EntryReceived:
				if !sendVerbose {
					return
				}
			case stream.EntryError:
				fmt.Fprintln(out, errStyle.Render(ev.Entry.String()))
				return
			}
			fmt.Fprintln(out, ev.Entry.String())

		case stream.EventProgress:
			if ev.Total == 0 {
				return
			}
			if p := ev.Index * 100 / ev.Total; p != percent && p%10 == 0 {
				percent = p
				fmt.Fprintf(out, "%s %3d%% (%d/%d)\n", labelStyle.Render("progress"), p, ev.Index, ev.Total)
			}

		case stream.EventStateChanged:
			fmt.Fprintln(out, titleStyle.Render(ev.State.String()))

		case stream.EventCompleted:
			once.Do(func() { close(completed) })
		}
	}
}

// lockedWriter serializes writes from the command loop and the event
// observer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	return lw.w.Write(p)
}
