package jobmanager

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrDuplicatePID = errors.New("pid already managed")
	ErrNoCommand    = errors.New("no command specified")
)

// SignalError is returned when a signal could not be delivered to a Job's
// process, e.g. because it no longer exists or permission was denied.
type SignalError struct {
	PID    int
	Signal unix.Signal
	Err    error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf(
		"send %s to pid %d: %v",
		unix.SignalName(e.Signal),
		e.PID,
		e.Err,
	)
}

func (e *SignalError) Unwrap() error {
	return e.Err
}

// LaunchError is returned when a Job's process could not be created. Op is
// "fork" when no child process was created and "exec" when the child was
// created but failed to load the program.
type LaunchError struct {
	Op      string
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
