package jobmanager

import (
	"iter"
	"log/slog"
	"os"
	"time"
)

// Manager is responsible for launching, signalling and tracking background
// Jobs. It owns a single Table shared by its Executor, Dispatcher and Reaper.
//
// NOTE: State in the Table is only as fresh as the last call to Reap. Callers
// should Reap before any operation that depends on a Job's state, such as
// Terminate, and after any operation whose effect they want to observe.
type Manager struct {
	table      *Table
	executor   *Executor
	dispatcher *Dispatcher
	reaper     *Reaper
	logger     *slog.Logger
}

type options struct {
	logger      *slog.Logger
	resumeDelay time.Duration
	stdout      *os.File
	stderr      *os.File
}

// Option configures a Manager.
type Option func(*options)

// WithLogger sets the logger used for diagnostics. Defaults to discarding.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithResumeDelay sets how long Terminate waits after continuing a stopped
// Job before sending SIGTERM.
func WithResumeDelay(d time.Duration) Option {
	return func(o *options) {
		o.resumeDelay = d
	}
}

// WithOutput sets the files launched Jobs inherit as stdout and stderr. Nil
// files connect to the null device, which is the default.
func WithOutput(stdout, stderr *os.File) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// NewManager creates a new Manager with an empty Table.
func NewManager(opts ...Option) *Manager {
	o := &options{
		logger:      discardLogger(),
		resumeDelay: defaultResumeDelay,
	}

	for _, opt := range opts {
		opt(o)
	}

	table := NewTable()

	return &Manager{
		table:      table,
		executor:   NewExecutor(table, o.stdout, o.stderr, o.logger),
		dispatcher: NewDispatcher(table, o.resumeDelay, o.logger),
		reaper:     NewReaper(table, o.logger),
		logger:     o.logger,
	}
}

// Launch starts a new background Job from argv. See Executor.Launch.
func (m *Manager) Launch(argv []string) (Job, error) {
	return m.executor.Launch(argv)
}

// Terminate terminates the Job with the given pid, continuing it first if
// it's stopped. See Dispatcher.Terminate.
func (m *Manager) Terminate(pid int) error {
	return m.dispatcher.Terminate(pid)
}

// ForceKill sends SIGKILL to the Job with the given pid.
func (m *Manager) ForceKill(pid int) error {
	return m.dispatcher.ForceKill(pid)
}

// Pause stops the Job with the given pid.
func (m *Manager) Pause(pid int) error {
	return m.dispatcher.Pause(pid)
}

// Resume continues the Job with the given pid.
func (m *Manager) Resume(pid int) error {
	return m.dispatcher.Resume(pid)
}

// Reap applies all pending status changes to the Table and returns the
// resulting Events.
func (m *Manager) Reap() []Event {
	return m.reaper.Poll()
}

// Find returns the Job with the given pid or ErrJobNotFound if it isn't
// managed by m.
func (m *Manager) Find(pid int) (Job, error) {
	return m.table.Find(pid)
}

// List returns all Jobs in launch order and their count. See Table.List.
func (m *Manager) List() (iter.Seq[Job], int) {
	return m.table.List()
}

// Shutdown makes a 'best effort' attempt to kill every Job managed by the
// Manager and collect their exit statuses.
func (m *Manager) Shutdown() {
	jobs, _ := m.table.List()

	for job := range jobs {
		if err := m.dispatcher.ForceKill(job.PID); err != nil {
			m.logger.Warn("shutdown kill", "pid", job.PID, "job_id", job.ID, "err", err)
		}
	}

	deadline := time.Now().Add(time.Second)

	for m.table.Len() > 0 && time.Now().Before(deadline) {
		m.reaper.Poll()
		time.Sleep(10 * time.Millisecond)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
