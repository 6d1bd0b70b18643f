// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the worklog command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noldarim/worklog/internal/config"
	"github.com/noldarim/worklog/internal/logger"
	"github.com/noldarim/worklog/internal/telemetry"
)

const (
	appName    = "worklog"
	appVersion = "0.1.0"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Summarize recent AI assistant sessions into a work log",
		Long: `worklog reads the local transcripts of Claude Code, Codex and Junie,
pairs each request with the tools used around it, and prints what was
worked on per project.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: ./worklog.yaml, ./config, ~/.worklog)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newSummaryCommand(opts))
	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newVersionCommand())

	return root
}

// Execute runs the CLI application
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
		},
	}
}

// environment is what every command needs after startup.
type environment struct {
	cfg       *config.AppConfig
	telemetry *telemetry.Telemetry
}

// setup loads configuration, then starts logging and telemetry.
func setup(ctx context.Context, opts *globalOptions) (*environment, error) {
	cfg, err := config.NewConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.verbose {
		cfg.Log.Level = "DEBUG"
		for pkg := range cfg.Log.Levels {
			cfg.Log.Levels[pkg] = "DEBUG"
		}
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, appVersion)
	if err != nil {
		logger.CloseGlobal()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	return &environment{cfg: cfg, telemetry: tel}, nil
}

// close flushes telemetry and closes log files.
func (e *environment) close(ctx context.Context) {
	if err := e.telemetry.Shutdown(ctx); err != nil {
		log := logger.GetCLILogger()
		log.Warn().Err(err).Msg("telemetry shutdown failed")
	}
	logger.CloseGlobal()
}
