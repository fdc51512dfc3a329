package jobmanager

import (
	"time"

	"golang.org/x/sys/unix"
)

type (
	WaitFunc = waitFunc
	KillFunc = killFunc
)

func NewReaperWithWait(table *Table, wait WaitFunc) *Reaper {
	r := NewReaper(table, discardLogger())
	r.wait = wait
	return r
}

func NewDispatcherWithKill(
	table *Table,
	resumeDelay time.Duration,
	kill KillFunc,
) *Dispatcher {
	d := NewDispatcher(table, resumeDelay, discardLogger())
	d.kill = kill
	return d
}

func SetState(t *Table, pid int, state JobState) error {
	_, err := t.setState(pid, state)
	return err
}

func LaunchFailureOp(err error) string {
	return launchFailureOp(err)
}

// Synthetic wait statuses in the Linux encoding.

func ExitedStatus(code int) unix.WaitStatus {
	return unix.WaitStatus(code << 8)
}

func SignaledStatus(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(sig)
}

func StoppedStatus(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(0x7f | int(sig)<<8)
}

func ContinuedStatus() unix.WaitStatus {
	return unix.WaitStatus(0xffff)
}
