package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nixpig/pman/internal/jobmanager"
	"github.com/nixpig/pman/internal/procstat"
	"github.com/spf13/pflag"
)

type command struct {
	name  string
	usage string
	short string

	// flags registers the command's flags on a fresh FlagSet. Commands
	// without flags receive their arguments unparsed, so "-5" reaches pid
	// validation rather than being rejected as an unknown flag.
	flags func(fs *pflag.FlagSet)

	exec func(fs *pflag.FlagSet, args []string) bool
}

// run executes c with args. Commands that declare flags have args parsed
// into a fresh FlagSet first; a parse failure is reported and the command
// aborted.
func (s *Shell) run(c *command, args []string) bool {
	if c.flags == nil {
		return c.exec(nil, args)
	}

	fs := pflag.NewFlagSet(c.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	c.flags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			s.printf("usage: %s", c.usage)
			return false
		}

		s.printf("%s: %v", c.name, err)
		return false
	}

	return c.exec(fs, fs.Args())
}

func (s *Shell) commandList() []*command {
	return []*command{
		{
			name:  "bg",
			usage: "bg <cmd> [args...]",
			short: "Launch a program in the background",
			exec: func(_ *pflag.FlagSet, args []string) bool {
				s.launch(args)
				return false
			},
		},
		{
			name:  "bglist",
			usage: "bglist",
			short: "List background jobs",
			exec: func(_ *pflag.FlagSet, _ []string) bool {
				s.list()
				return false
			},
		},
		{
			name:  "bgkill",
			usage: "bgkill [-f|--force] <pid>",
			short: "Terminate a job, or kill it with --force",
			flags: func(fs *pflag.FlagSet) {
				fs.BoolP("force", "f", false, "Send SIGKILL instead of SIGTERM")
			},
			exec: func(fs *pflag.FlagSet, args []string) bool {
				if force, _ := fs.GetBool("force"); force {
					s.kill(args, "killed", s.manager.ForceKill)
				} else {
					s.kill(args, "terminated", s.manager.Terminate)
				}

				return false
			},
		},
		{
			name:  "bgstop",
			usage: "bgstop <pid>",
			short: "Stop a job",
			exec: func(_ *pflag.FlagSet, args []string) bool {
				s.signal(args, "stop", "stopped", s.manager.Pause)
				return false
			},
		},
		{
			name:  "bgstart",
			usage: "bgstart <pid>",
			short: "Continue a stopped job",
			exec: func(_ *pflag.FlagSet, args []string) bool {
				s.signal(args, "start", "started", s.manager.Resume)
				return false
			},
		},
		{
			name:  "pstat",
			usage: "pstat <pid>",
			short: "Show process statistics for a job",
			exec: func(_ *pflag.FlagSet, args []string) bool {
				s.pstat(args)
				return false
			},
		},
		{
			name:  "help",
			usage: "help",
			short: "Show this help",
			exec: func(_ *pflag.FlagSet, _ []string) bool {
				s.help()
				return false
			},
		},
		{
			name:  "exit",
			usage: "exit",
			short: "Exit, leaving background jobs running",
			exec: func(_ *pflag.FlagSet, _ []string) bool {
				s.println("Exiting")
				return true
			},
		},
	}
}

func (s *Shell) launch(argv []string) {
	if len(argv) == 0 {
		s.println("No job specified")
		return
	}

	job, err := s.manager.Launch(argv)
	if err != nil {
		var launchErr *jobmanager.LaunchError

		switch {
		case errors.Is(err, jobmanager.ErrNoCommand):
			s.println("No job specified")
		case errors.As(err, &launchErr) && launchErr.Op == "fork":
			s.println("Forking Failed")
		case errors.As(err, &launchErr):
			s.printf("Failed to perform action %s", launchErr.Command)
		default:
			s.printf("Failed to perform action: %v", err)
		}

		return
	}

	s.printf("Started job %d: %s", job.PID, job.Command)
}

func (s *Shell) list() {
	jobs, count := s.manager.List()

	if count > 0 {
		w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)

		fmt.Fprintf(w, "PID\tSTATE\tSTARTED\tCOMMAND\t\n")
		for job := range jobs {
			fmt.Fprintf(
				w,
				"%d\t%s\t%s\t%s\t\n",
				job.PID,
				job.State,
				job.StartedAt.Format(time.TimeOnly),
				job.Command,
			)
		}

		w.Flush()
	}

	s.printf("Total Number of Processes: %d", count)
}

// kill reports failures of both termination paths as a failure to kill.
func (s *Shell) kill(args []string, past string, op func(int) error) {
	s.signal(args, "kill", past, op)
}

// signal validates the pid argument and applies op to it. verb and past
// complete the failure and success messages.
func (s *Shell) signal(args []string, verb, past string, op func(int) error) {
	pid, ok := s.parsePID(args)
	if !ok {
		return
	}

	if err := op(pid); err != nil {
		var signalErr *jobmanager.SignalError

		switch {
		case errors.Is(err, jobmanager.ErrJobNotFound):
			s.notManaged(pid)
		case errors.As(err, &signalErr):
			s.printf("Failed to %s process %d: %v", verb, pid, signalErr.Err)
		default:
			s.printf("Failed to %s process %d: %v", verb, pid, err)
		}

		return
	}

	s.printf("Successfully %s process %d", past, pid)
}

func (s *Shell) pstat(args []string) {
	pid, ok := s.parsePID(args)
	if !ok {
		return
	}

	stat, err := s.stats.Report(pid)
	if err != nil {
		switch {
		case errors.Is(err, procstat.ErrNotManaged):
			s.notManaged(pid)
		case errors.Is(err, procstat.ErrProcessNotExist):
			s.printf("Process %d does not exist.", pid)
		case errors.Is(err, procstat.ErrProcessInaccessible):
			s.printf("Process %d is unaccessible.", pid)
		default:
			s.printf("Failed to read statistics for process %d: %v", pid, err)
		}

		return
	}

	s.printf("pstat for pid %d", stat.PID)
	s.printf("comm: %s", stat.Comm)
	s.printf("state: %s", stat.State)
	s.printf("utime: %s", stat.UTime)
	s.printf("stime: %s", stat.STime)
	s.printf("rss: %d", stat.RSS)
	s.printf("voluntary_ctxt_switches: %d", stat.VoluntaryCtxtSwitches)
	s.printf("nonvoluntary_ctxt_switches: %d", stat.NonvoluntaryCtxtSwitches)
}

func (s *Shell) help() {
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)

	for _, c := range s.commandList() {
		fmt.Fprintf(w, "%s\t%s\t\n", c.usage, c.short)
	}

	w.Flush()
}

// parsePID parses the first argument as a pid, reporting a message if it's
// missing or not a positive integer.
func (s *Shell) parsePID(args []string) (int, bool) {
	if len(args) == 0 {
		s.println("No job specified")
		return 0, false
	}

	pid, err := parsePID(args[0])
	if err != nil {
		s.println("Pid must be an integer")
		return 0, false
	}

	return pid, true
}

func parsePID(arg string) (int, error) {
	for _, r := range arg {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid pid %q", arg)
		}
	}

	pid, err := strconv.Atoi(arg)
	if err != nil {
		return 0, err
	}

	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q", arg)
	}

	return pid, nil
}

func (s *Shell) notManaged(pid int) {
	s.printf("pid %d does not exist or was not started by pman", pid)
}
