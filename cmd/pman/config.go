package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

const maxResumeDelay = 10 * time.Second

type config struct {
	configPath  string
	prompt      string
	resumeDelay time.Duration
	debug       bool
}

// fileConfig is the on-disk TOML representation. Pointer fields distinguish
// absent keys from zero values.
type fileConfig struct {
	Prompt      *string `toml:"prompt"`
	ResumeDelay *string `toml:"resume_delay"`
	Debug       *bool   `toml:"debug"`
}

func newConfig() *config {
	return &config{
		configPath:  defaultConfigPath(),
		prompt:      "pman> ",
		resumeDelay: 100 * time.Millisecond,
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "pman", "config.toml")
}

func (c *config) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.configPath, "config", c.configPath, "Path to TOML config file")
	fs.StringVar(&c.prompt, "prompt", c.prompt, "Prompt shown when input is a terminal")
	fs.BoolVar(&c.debug, "debug", c.debug, "Enable debug logs")

	fs.DurationVar(
		&c.resumeDelay,
		"resume-delay",
		c.resumeDelay,
		"Delay between continuing a stopped job and terminating it",
	)
}

// loadFile applies settings from the config file for every flag not
// explicitly set on the command line. A missing file is not an error.
func (c *config) loadFile(fs *pflag.FlagSet) error {
	if c.configPath == "" {
		return nil
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("read config file %s: %w", c.configPath, err)
	}

	var fc fileConfig

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", c.configPath, err)
	}

	if fc.Prompt != nil && !fs.Changed("prompt") {
		c.prompt = *fc.Prompt
	}

	if fc.Debug != nil && !fs.Changed("debug") {
		c.debug = *fc.Debug
	}

	if fc.ResumeDelay != nil && !fs.Changed("resume-delay") {
		d, err := time.ParseDuration(*fc.ResumeDelay)
		if err != nil {
			return fmt.Errorf("parse resume_delay: %w", err)
		}

		c.resumeDelay = d
	}

	return nil
}

func (c *config) validate() error {
	if c.resumeDelay < 0 {
		return errors.New("resume-delay cannot be negative")
	}

	if c.resumeDelay > maxResumeDelay {
		return fmt.Errorf("resume-delay cannot exceed %s", maxResumeDelay)
	}

	return nil
}
