package jobmanager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// Executor launches background Jobs and registers them in a Table.
type Executor struct {
	table  *Table
	stdout *os.File
	stderr *os.File
	logger *slog.Logger
}

// NewExecutor creates an Executor that registers Jobs in table. The launched
// processes inherit stdout and stderr; a nil file connects the stream to the
// null device.
func NewExecutor(
	table *Table,
	stdout *os.File,
	stderr *os.File,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		table:  table,
		stdout: stdout,
		stderr: stderr,
		logger: logger,
	}
}

// Launch starts argv[0] with arguments argv[1:] in the background and
// registers it as a Job in JobStateRunning.
//
// Start blocks on the fork/exec handshake: the child reports a failed exec to
// the parent over a close-on-exec pipe before Start returns. A Job is only
// registered once the program is known to be running. Failures are returned
// as a *LaunchError.
func (e *Executor) Launch(argv []string) (Job, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Job{}, ErrNoCommand
	}

	command := strings.Join(argv, " ")

	cmd := exec.Command(argv[0], argv[1:]...)

	// Only *os.File values are passed through so that exec doesn't start
	// copying goroutines which would need a cmd.Wait that the Reaper replaces.
	if e.stdout != nil {
		cmd.Stdout = e.stdout
	}

	if e.stderr != nil {
		cmd.Stderr = e.stderr
	}

	// Own process group so that terminal-generated signals aimed at the shell
	// don't reach background Jobs.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		launchErr := &LaunchError{
			Op:      launchFailureOp(err),
			Command: command,
			Err:     err,
		}

		e.logger.Warn("launch job", "cmd", command, "op", launchErr.Op, "err", err)

		return Job{}, launchErr
	}

	pid := cmd.Process.Pid

	// The Reaper collects the exit status with wait4, so the handle is no
	// longer needed.
	if err := cmd.Process.Release(); err != nil {
		e.logger.Debug("release process handle", "pid", pid, "err", err)
	}

	job, err := e.table.Insert(pid, command)
	if err != nil {
		return Job{}, fmt.Errorf("register pid %d: %w", pid, err)
	}

	e.logger.Debug("launched job", "pid", pid, "job_id", job.ID, "cmd", command)

	return job, nil
}

// launchFailureOp reports whether a failed Start never created a child
// ("fork") or created one that couldn't load the program ("exec").
func launchFailureOp(err error) string {
	var errno unix.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.EAGAIN, unix.ENOMEM, unix.ENOSYS:
			return "fork"
		}
	}

	return "exec"
}
