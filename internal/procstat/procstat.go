// Package procstat reports kernel accounting data for managed Jobs by reading
// /proc/<pid>/stat and /proc/<pid>/status.
package procstat

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nixpig/pman/internal/jobmanager"
)

// userHZ is the unit of the time fields in /proc/<pid>/stat. It's fixed at
// 100 on Linux regardless of the kernel's internal tick rate.
const userHZ = 100

var (
	ErrNotManaged          = errors.New("process not managed")
	ErrProcessNotExist     = errors.New("process does not exist")
	ErrProcessInaccessible = errors.New("process is inaccessible")
)

// Lookup confirms a pid belongs to a managed Job.
type Lookup interface {
	Find(pid int) (jobmanager.Job, error)
}

// Stat holds the accounting data reported for a process.
type Stat struct {
	PID   int
	Comm  string
	State string
	UTime time.Duration
	STime time.Duration

	// RSS is the resident set size in pages.
	RSS int64

	VoluntaryCtxtSwitches    int64
	NonvoluntaryCtxtSwitches int64
}

// Reporter reads Stats for processes confirmed by a Lookup.
type Reporter struct {
	lookup   Lookup
	procRoot string
}

// NewReporter creates a Reporter reading from /proc.
func NewReporter(lookup Lookup) *Reporter {
	return NewReporterWithRoot(lookup, "/proc")
}

// NewReporterWithRoot creates a Reporter reading from procRoot instead of
// /proc.
func NewReporterWithRoot(lookup Lookup, procRoot string) *Reporter {
	return &Reporter{lookup: lookup, procRoot: procRoot}
}

// Report returns the Stat for pid. It returns ErrNotManaged if pid isn't a
// managed Job, ErrProcessNotExist if the process has gone, and
// ErrProcessInaccessible if its accounting files can't be read.
func (r *Reporter) Report(pid int) (*Stat, error) {
	if _, err := r.lookup.Find(pid); err != nil {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrNotManaged)
	}

	dir := filepath.Join(r.procRoot, strconv.Itoa(pid))

	if _, err := os.Stat(dir); err != nil {
		return nil, classify(pid, err)
	}

	statData, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return nil, classify(pid, err)
	}

	s, err := parseStat(statData)
	if err != nil {
		return nil, fmt.Errorf("parse stat for pid %d: %w", pid, err)
	}

	statusData, err := os.ReadFile(filepath.Join(dir, "status"))
	if err != nil {
		return nil, classify(pid, err)
	}

	if err := parseStatus(statusData, s); err != nil {
		return nil, fmt.Errorf("parse status for pid %d: %w", pid, err)
	}

	return s, nil
}

func classify(pid int, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pid %d: %w", pid, ErrProcessNotExist)
	}

	return fmt.Errorf("pid %d: %w: %w", pid, ErrProcessInaccessible, err)
}

// parseStat parses the contents of /proc/<pid>/stat. The comm field is
// wrapped in parentheses and may itself contain spaces and parentheses, so
// the remaining fields are taken from after the last ')'.
func parseStat(data []byte) (*Stat, error) {
	open := bytes.IndexByte(data, '(')
	end := bytes.LastIndexByte(data, ')')
	if open < 0 || end < open {
		return nil, errors.New("malformed comm field")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data[:open])))
	if err != nil {
		return nil, fmt.Errorf("pid field: %w", err)
	}

	// fields[0] is field 3 (state) in proc(5) numbering.
	fields := strings.Fields(string(data[end+1:]))
	if len(fields) < 22 {
		return nil, fmt.Errorf("expected at least 24 fields: got %d", len(fields)+2)
	}

	utime, err := strconv.ParseInt(fields[11], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("utime field: %w", err)
	}

	stime, err := strconv.ParseInt(fields[12], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stime field: %w", err)
	}

	rss, err := strconv.ParseInt(fields[21], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("rss field: %w", err)
	}

	return &Stat{
		PID:   pid,
		Comm:  string(data[open+1 : end]),
		State: fields[0],
		UTime: ticksToDuration(utime),
		STime: ticksToDuration(stime),
		RSS:   rss,
	}, nil
}

func parseStatus(data []byte, s *Stat) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}

		var dst *int64

		switch key {
		case "voluntary_ctxt_switches":
			dst = &s.VoluntaryCtxtSwitches
		case "nonvoluntary_ctxt_switches":
			dst = &s.NonvoluntaryCtxtSwitches
		default:
			continue
		}

		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		*dst = n
	}

	return scanner.Err()
}

func ticksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * time.Second / userHZ
}
