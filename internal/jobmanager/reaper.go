package jobmanager

import (
	"errors"
	"log/slog"

	"golang.org/x/sys/unix"
)

const waitOptions = unix.WNOHANG | unix.WUNTRACED | unix.WCONTINUED

// waitFunc matches unix.Wait4 so tests can feed synthetic status changes.
type waitFunc func(
	pid int,
	status *unix.WaitStatus,
	options int,
	rusage *unix.Rusage,
) (int, error)

// Reaper collects process status-change notifications from the kernel and
// applies them to a Table.
type Reaper struct {
	table  *Table
	wait   waitFunc
	logger *slog.Logger
}

// NewReaper creates a Reaper that applies status changes to table.
func NewReaper(table *Table, logger *slog.Logger) *Reaper {
	return &Reaper{table: table, wait: unix.Wait4, logger: logger}
}

// Poll drains every pending status change without blocking and returns the
// resulting Events in the order they were observed. It returns nil when
// nothing has changed or there are no children left to wait for.
func (r *Reaper) Poll() []Event {
	var events []Event

	for {
		var status unix.WaitStatus

		pid, err := r.wait(-1, &status, waitOptions, nil)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}

			if !errors.Is(err, unix.ECHILD) {
				r.logger.Warn("wait for status change", "err", err)
			}

			return events
		}

		if pid <= 0 {
			return events
		}

		event, ok := r.apply(pid, status)
		if !ok {
			continue
		}

		events = append(events, event)
	}
}

func (r *Reaper) apply(pid int, status unix.WaitStatus) (Event, bool) {
	event := Event{PID: pid, ExitCode: -1}

	var (
		job Job
		err error
	)

	switch {
	case status.Continued():
		event.Kind = EventStarted
		job, err = r.table.setState(pid, JobStateRunning)

	case status.Stopped():
		event.Kind = EventStopped
		event.Signal = status.StopSignal()
		job, err = r.table.setState(pid, JobStateStopped)

	case status.Exited():
		event.Kind = EventFinished
		event.ExitCode = status.ExitStatus()
		job, err = r.table.Remove(pid)

	case status.Signaled():
		event.Kind = EventKilled
		event.Signal = status.Signal()
		job, err = r.table.Remove(pid)

	default:
		r.logger.Debug("unrecognised wait status", "pid", pid, "status", uint32(status))
		return Event{}, false
	}

	if err == nil {
		event.Known = true
		event.Command = job.Command
	}

	r.logger.Debug(
		"status change",
		"pid", pid,
		"job_id", job.ID,
		"event", event.Kind.String(),
		"known", event.Known,
	)

	return event, true
}
