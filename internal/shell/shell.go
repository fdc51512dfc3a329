// Package shell implements the interactive pman command loop. It reads
// whitespace-separated commands, dispatches them to a jobmanager.Manager and
// reports the outcome and any Job status changes as human-readable messages.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nixpig/pman/internal/jobmanager"
	"github.com/nixpig/pman/internal/procstat"
)

// Shell is a single operator session. It's not safe for concurrent use.
type Shell struct {
	manager  *jobmanager.Manager
	stats    *procstat.Reporter
	out      io.Writer
	logger   *slog.Logger
	prompt   string
	commands map[string]*command
}

// New creates a Shell writing messages to out. An empty prompt disables
// prompting, e.g. when input isn't a terminal.
func New(
	manager *jobmanager.Manager,
	stats *procstat.Reporter,
	out io.Writer,
	logger *slog.Logger,
	prompt string,
) *Shell {
	s := &Shell{
		manager: manager,
		stats:   stats,
		out:     out,
		logger:  logger,
		prompt:  prompt,
	}

	s.commands = make(map[string]*command)
	for _, c := range s.commandList() {
		s.commands[c.name] = c
	}

	return s
}

// Run reads commands from in until exit, EOF or ctx is cancelled. Outstanding
// Jobs are left running.
//
// Reading happens on a separate goroutine so a cancelled session doesn't wait
// on the next line. It stops once Run returns, unless it's blocked reading
// from in, where it stays until in yields a line or an error.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		reader := bufio.NewReader(in)

		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}

			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}

				readErr <- err
				return
			}
		}
	}()

	for {
		if s.prompt != "" {
			fmt.Fprint(s.out, s.prompt)
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nExiting")
			return nil

		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read command: %w", err)
			}

			fmt.Fprintln(s.out, "Exiting")
			return nil

		case line := <-lines:
			if exit := s.Execute(line); exit {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether the operator asked
// to exit. Status changes are collected before the command, so decisions are
// made on fresh state, and after it, so its effect is reported promptly.
func (s *Shell) Execute(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	s.reap()
	defer s.reap()

	c, ok := s.commands[args[0]]
	if !ok {
		s.println(args[0] + ": command not found")
		return false
	}

	s.logger.Debug("execute command", "cmd", c.name, "args", args[1:])

	return s.run(c, args[1:])
}

func (s *Shell) reap() {
	for _, event := range s.manager.Reap() {
		if !event.Known {
			s.logger.Debug(
				"status change for unmanaged pid",
				"pid", event.PID,
				"event", event.Kind.String(),
			)

			continue
		}

		s.println(event.String())
	}
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format+"\n", a...)
}
