package jobmanager

import (
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Table is an ordered registry of Jobs keyed by pid. Insertion order is
// preserved for listing. All access goes through lookup by pid or a full
// traversal; no caller ever holds a reference into the Table.
type Table struct {
	jobs  map[int]*Job
	order []int

	mu sync.Mutex
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{jobs: make(map[int]*Job)}
}

// Insert adds a Job in JobStateRunning for the given pid and command. It
// returns ErrDuplicatePID, leaving the Table unchanged, if pid is already
// present.
func (t *Table) Insert(pid int, command string) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.jobs[pid]; exists {
		return Job{}, ErrDuplicatePID
	}

	job := &Job{
		ID:        uuid.NewString(),
		PID:       pid,
		Command:   command,
		State:     JobStateRunning,
		StartedAt: time.Now(),
	}

	t.jobs[pid] = job
	t.order = append(t.order, pid)

	return *job, nil
}

// Remove deletes the Job with the given pid and returns its final snapshot,
// or ErrJobNotFound if it doesn't exist.
func (t *Table) Remove(pid int) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, exists := t.jobs[pid]
	if !exists {
		return Job{}, ErrJobNotFound
	}

	delete(t.jobs, pid)

	if i := slices.Index(t.order, pid); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}

	return *job, nil
}

// Find returns the Job with the given pid or ErrJobNotFound if it doesn't
// exist.
func (t *Table) Find(pid int) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, exists := t.jobs[pid]
	if !exists {
		return Job{}, ErrJobNotFound
	}

	return *job, nil
}

// List returns a sequence of all Jobs in insertion order and the number of
// Jobs at the time of the call.
//
// The sequence is lazy and restartable: every iteration takes a fresh
// snapshot of the Table, so it reflects changes made since List was called
// and it's safe to call back into the Table from inside the loop.
func (t *Table) List() (iter.Seq[Job], int) {
	seq := func(yield func(Job) bool) {
		for _, job := range t.snapshot() {
			if !yield(job) {
				return
			}
		}
	}

	return seq, t.Len()
}

// Len returns the number of Jobs in the Table.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.order)
}

func (t *Table) snapshot() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	jobs := make([]Job, 0, len(t.order))
	for _, pid := range t.order {
		jobs = append(jobs, *t.jobs[pid])
	}

	return jobs
}

// setState updates the state of the Job with the given pid. Only the Reaper
// calls this, in response to an observed status change.
func (t *Table) setState(pid int, state JobState) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, exists := t.jobs[pid]
	if !exists {
		return Job{}, ErrJobNotFound
	}

	job.State = state

	return *job, nil
}
