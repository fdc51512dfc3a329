package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	return path
}

// loadTestConfig parses args as command-line flags and loads the config file.
func loadTestConfig(t *testing.T, args ...string) (*config, error) {
	t.Helper()

	cfg := newConfig()

	fs := pflag.NewFlagSet("pman", pflag.ContinueOnError)
	cfg.addFlags(fs)

	if err := fs.Parse(args); err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	return cfg, cfg.loadFile(fs)
}

func TestConfig(t *testing.T) {
	t.Parallel()

	t.Run("Test defaults with missing file", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "nope.toml")

		cfg, err := loadTestConfig(t, "--config", missing)
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if cfg.prompt != "pman> " || cfg.resumeDelay != 100*time.Millisecond || cfg.debug {
			t.Errorf("expected defaults: got '%+v'", cfg)
		}
	})

	t.Run("Test file values", func(t *testing.T) {
		t.Parallel()

		path := writeTestConfig(t, `
prompt = "jobs$ "
resume_delay = "250ms"
debug = true
`)

		cfg, err := loadTestConfig(t, "--config", path)
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if cfg.prompt != "jobs$ " {
			t.Errorf("expected prompt: got '%s', want '%s'", cfg.prompt, "jobs$ ")
		}

		if cfg.resumeDelay != 250*time.Millisecond {
			t.Errorf("expected resume delay: got '%s', want '%s'", cfg.resumeDelay, "250ms")
		}

		if !cfg.debug {
			t.Errorf("expected debug: got '%t', want '%t'", cfg.debug, true)
		}
	})

	t.Run("Test flags override file", func(t *testing.T) {
		t.Parallel()

		path := writeTestConfig(t, `
prompt = "jobs$ "
resume_delay = "250ms"
`)

		cfg, err := loadTestConfig(t, "--config", path, "--resume-delay", "1s")
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if cfg.resumeDelay != time.Second {
			t.Errorf("expected resume delay: got '%s', want '%s'", cfg.resumeDelay, "1s")
		}

		if cfg.prompt != "jobs$ " {
			t.Errorf("expected prompt: got '%s', want '%s'", cfg.prompt, "jobs$ ")
		}
	})

	t.Run("Test invalid files", func(t *testing.T) {
		t.Parallel()

		scenarios := map[string]struct {
			contents string
			wantErr  string
		}{
			"Bad syntax":   {"prompt = ", "parse config file"},
			"Unknown key":  {"colour = \"red\"", "parse config file"},
			"Bad duration": {"resume_delay = \"soon\"", "parse resume_delay"},
		}

		for scenario, sc := range scenarios {
			t.Run(scenario, func(t *testing.T) {
				t.Parallel()

				path := writeTestConfig(t, sc.contents)

				_, err := loadTestConfig(t, "--config", path)
				if err == nil || !strings.Contains(err.Error(), sc.wantErr) {
					t.Errorf("expected error containing '%s': got '%v'", sc.wantErr, err)
				}
			})
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	scenarios := map[string]struct {
		resumeDelay time.Duration
		valid       bool
	}{
		"Default":  {100 * time.Millisecond, true},
		"Zero":     {0, true},
		"Maximum":  {maxResumeDelay, true},
		"Negative": {-time.Millisecond, false},
		"Too long": {maxResumeDelay + time.Millisecond, false},
	}

	for scenario, sc := range scenarios {
		t.Run(scenario, func(t *testing.T) {
			t.Parallel()

			cfg := newConfig()
			cfg.resumeDelay = sc.resumeDelay

			if err := cfg.validate(); (err == nil) != sc.valid {
				t.Errorf("expected valid '%t': got '%v'", sc.valid, err)
			}
		})
	}
}
