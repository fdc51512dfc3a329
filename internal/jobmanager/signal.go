package jobmanager

import (
	"log/slog"
	"time"

	"golang.org/x/sys/unix"
)

// defaultResumeDelay is how long Terminate waits between continuing a stopped
// process and sending it SIGTERM.
const defaultResumeDelay = 100 * time.Millisecond

// killFunc matches unix.Kill so tests can observe the signals sent.
type killFunc func(pid int, sig unix.Signal) error

// Dispatcher sends signals to managed Jobs. It only requests OS-level state
// changes; the Table is updated later by the Reaper when the corresponding
// status change is observed.
type Dispatcher struct {
	table       *Table
	kill        killFunc
	resumeDelay time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher for Jobs in table.
func NewDispatcher(
	table *Table,
	resumeDelay time.Duration,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		table:       table,
		kill:        unix.Kill,
		resumeDelay: resumeDelay,
		logger:      logger,
	}
}

// Terminate sends SIGTERM to the Job with the given pid. A stopped process
// may not act on SIGTERM until it's continued, so a Job in JobStateStopped is
// sent SIGCONT first and given the resume delay before SIGTERM is sent.
func (d *Dispatcher) Terminate(pid int) error {
	job, err := d.table.Find(pid)
	if err != nil {
		return err
	}

	if job.State == JobStateStopped {
		if err := d.signal(job, unix.SIGCONT); err != nil {
			return err
		}

		time.Sleep(d.resumeDelay)
	}

	return d.signal(job, unix.SIGTERM)
}

// ForceKill sends SIGKILL to the Job with the given pid. SIGKILL is delivered
// to stopped processes too, so no resume is needed.
func (d *Dispatcher) ForceKill(pid int) error {
	return d.send(pid, unix.SIGKILL)
}

// Pause sends SIGSTOP to the Job with the given pid.
func (d *Dispatcher) Pause(pid int) error {
	return d.send(pid, unix.SIGSTOP)
}

// Resume sends SIGCONT to the Job with the given pid.
func (d *Dispatcher) Resume(pid int) error {
	return d.send(pid, unix.SIGCONT)
}

func (d *Dispatcher) send(pid int, sig unix.Signal) error {
	job, err := d.table.Find(pid)
	if err != nil {
		return err
	}

	return d.signal(job, sig)
}

func (d *Dispatcher) signal(job Job, sig unix.Signal) error {
	d.logger.Debug(
		"send signal",
		"pid", job.PID,
		"job_id", job.ID,
		"signal", unix.SignalName(sig),
	)

	if err := d.kill(job.PID, sig); err != nil {
		d.logger.Warn(
			"send signal",
			"pid", job.PID,
			"job_id", job.ID,
			"signal", unix.SignalName(sig),
			"err", err,
		)

		return &SignalError{PID: job.PID, Signal: sig, Err: err}
	}

	return nil
}
