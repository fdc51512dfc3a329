package jobmanager

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type EventKind int

const (
	EventUnknown EventKind = iota

	// EventStarted is emitted when a stopped process is continued.
	EventStarted

	// EventStopped is emitted when a process is stopped by a signal.
	EventStopped

	// EventFinished is emitted when a process exits normally.
	EventFinished

	// EventKilled is emitted when a process is terminated by a signal.
	EventKilled
)

var eventKinds = []string{
	"Unknown",
	"Started",
	"Stopped",
	"Finished",
	"Killed",
}

func (k EventKind) String() string {
	if int(k) < 0 || int(k) >= len(eventKinds) {
		return eventKinds[0]
	}

	return eventKinds[k]
}

// Event is a process status change observed by the Reaper.
type Event struct {
	PID  int
	Kind EventKind

	// Known reports whether PID belonged to a managed Job. Events for unknown
	// pids are surfaced but never applied to the Table.
	Known bool

	// Command is the Job's command when Known.
	Command string

	// ExitCode is the exit status for EventFinished, otherwise -1.
	ExitCode int

	// Signal is the stop signal for EventStopped and the terminating signal
	// for EventKilled, otherwise 0.
	Signal unix.Signal
}

func (e Event) String() string {
	return fmt.Sprintf("%d : %s", e.PID, e.Kind)
}
