package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/nixpig/pman/internal/jobmanager"
	"github.com/nixpig/pman/internal/procstat"
	"github.com/nixpig/pman/internal/shell"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// TODO: Inject version at build time.
const version = "0.0.1"

func rootCmd() *cobra.Command {
	cfg := newConfig()

	c := &cobra.Command{
		Use:          "pman",
		Short:        "Interactive shell for launching and controlling background jobs",
		Example:      "  pman --resume-delay 250ms",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.loadFile(cmd.Flags()); err != nil {
				return err
			}

			if err := cfg.validate(); err != nil {
				return err
			}

			return runShell(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	c.CompletionOptions.HiddenDefaultCmd = true

	cfg.addFlags(c.Flags())

	return c
}

func runShell(ctx context.Context, cfg *config, in io.Reader, out io.Writer) error {
	level := slog.LevelWarn
	if cfg.debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: level},
	))

	manager := jobmanager.NewManager(
		jobmanager.WithLogger(logger),
		jobmanager.WithResumeDelay(cfg.resumeDelay),
		jobmanager.WithOutput(os.Stdout, os.Stderr),
	)

	// Prompting a pipe just adds noise to scripted sessions.
	prompt := ""
	if isTerminal(in) {
		prompt = cfg.prompt
	}

	logger.Debug("start session", "resume_delay", cfg.resumeDelay, "config", cfg.configPath)

	return shell.New(
		manager,
		procstat.NewReporter(manager),
		out,
		logger,
		prompt,
	).Run(ctx, in)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
