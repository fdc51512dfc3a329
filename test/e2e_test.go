//go:build e2e

package e2e_test

import (
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

type testEnv struct {
	binPath string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *syncBuffer
}

// syncBuffer is written by the pman process while the test reads it.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sb.String()
}

var startedRe = regexp.MustCompile(`Started job (\d+):`)

// NOTE: A relative path is used to determine the source location to build
// the binary. Running this test from anywhere that breaks that relative path
// will not work.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		binPath: filepath.Join(t.TempDir(), "pman"),
		stdout:  &syncBuffer{},
	}

	build := exec.Command("go", "build", "-o", env.binPath, "../cmd/pman")

	if output, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: '%v' (output: '%s')", err, output)
	}

	env.cmd = exec.Command(
		env.binPath,
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
		"--resume-delay", "50ms",
	)

	env.cmd.Stdout = env.stdout

	var err error

	env.stdin, err = env.cmd.StdinPipe()
	if err != nil {
		t.Fatalf("failed to create stdin pipe: '%v'", err)
	}

	if err := env.cmd.Start(); err != nil {
		t.Fatalf("failed to start pman: '%v'", err)
	}

	t.Cleanup(func() {
		env.stdin.Close()
		env.cmd.Process.Kill()
		env.cmd.Wait()
	})

	return env
}

func (env *testEnv) send(t *testing.T, line string) {
	t.Helper()

	if _, err := io.WriteString(env.stdin, line+"\n"); err != nil {
		t.Fatalf("failed to write '%s': '%v'", line, err)
	}
}

// waitForOutput sends line repeatedly until the output contains want.
func (env *testEnv) waitForOutput(t *testing.T, line, want string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		env.send(t, line)

		time.Sleep(50 * time.Millisecond)

		if strings.Contains(env.stdout.String(), want) {
			return
		}
	}

	t.Fatalf("expected output to contain '%s': got '%s'", want, env.stdout.String())
}

func (env *testEnv) launch(t *testing.T, line string) int {
	t.Helper()

	before := len(startedRe.FindAllString(env.stdout.String(), -1))

	env.send(t, line)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		matches := startedRe.FindAllStringSubmatch(env.stdout.String(), -1)
		if len(matches) > before {
			pid, _ := strconv.Atoi(matches[len(matches)-1][1])
			return pid
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("expected job to start: got '%s'", env.stdout.String())

	return 0
}

func TestBasicE2E(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("Test job lifecycle", func(t *testing.T) {
		pid := env.launch(t, "bg sleep 100")

		env.waitForOutput(t, "bglist", "Total Number of Processes: 1")

		env.send(t, fmt.Sprintf("bgstop %d", pid))
		env.waitForOutput(t, "bglist", fmt.Sprintf("%d : Stopped", pid))

		env.send(t, fmt.Sprintf("bgkill %d", pid))
		env.waitForOutput(t, "bglist", fmt.Sprintf("%d : Killed", pid))
		env.waitForOutput(t, "bglist", "Total Number of Processes: 0")
	})

	t.Run("Test failures", func(t *testing.T) {
		env.send(t, "bg /no/such/binary")
		env.waitForOutput(t, "bglist", "Failed to perform action /no/such/binary")

		env.send(t, "bgkill 999999")
		env.waitForOutput(t, "bglist", "pid 999999 does not exist or was not started by pman")

		env.send(t, "bgstop twelve")
		env.waitForOutput(t, "bglist", "Pid must be an integer")
	})

	t.Run("Test exit leaves jobs running", func(t *testing.T) {
		pid := env.launch(t, "bg sleep 100")

		env.send(t, "exit")

		if err := env.cmd.Wait(); err != nil {
			t.Errorf("expected clean exit: got '%v'", err)
		}

		if !strings.Contains(env.stdout.String(), "Exiting") {
			t.Errorf("expected exit message: got '%s'", env.stdout.String())
		}

		if err := unix.Kill(pid, 0); err != nil {
			t.Errorf("expected job %d to outlive pman: got '%v'", pid, err)
		}

		unix.Kill(pid, unix.SIGKILL)
	})
}
