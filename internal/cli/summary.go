// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/noldarim/worklog/internal/logger"
	"github.com/noldarim/worklog/internal/tui/pager"
	"github.com/noldarim/worklog/internal/tui/prompt"
	"github.com/noldarim/worklog/internal/worklog"
	"github.com/noldarim/worklog/internal/worklog/render"
)

type summaryOptions struct {
	hours       int
	format      string
	pager       bool
	interactive bool
}

func newSummaryCommand(global *globalOptions) *cobra.Command {
	opts := &summaryOptions{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the work summary for the lookback window",
		Example: `  worklog summary
  worklog summary --hours 72 --format bullets
  worklog summary --format json > worklog.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummary(cmd, global, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.hours, "hours", "H", 24, "Number of hours to look back")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(render.FormatLog), "Output format: log, bullets, yaml, json")
	cmd.Flags().BoolVar(&opts.pager, "pager", false, "Show the output in a scrollable pager")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Choose hours and format interactively")

	return cmd
}

func runSummary(cmd *cobra.Command, global *globalOptions, opts *summaryOptions) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	hours := opts.hours

	if opts.interactive {
		sel, err := prompt.Ask(prompt.Selection{Hours: hours, Format: format})
		if errors.Is(err, prompt.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		hours, format = sel.Hours, sel.Format
	}

	if hours <= 0 {
		return fmt.Errorf("--hours must be positive, got %d", hours)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := setup(ctx, global)
	if err != nil {
		return err
	}
	defer env.close(context.Background())

	log := logger.GetCLILogger()
	log.Debug().Int("hours", hours).Str("format", string(format)).Msg("running summary")

	out := cmd.OutOrStdout()
	svc := worklog.NewService(env.cfg, worklog.WithProgress(cmd.ErrOrStderr()))

	renderOpts := svc.RenderOptions()
	if isTerminal(out) && !opts.pager {
		renderOpts.Renderer = lipgloss.NewRenderer(out)
	}

	if !opts.pager {
		return svc.Summarize(ctx, out, hours, format, renderOpts)
	}

	var buf bytes.Buffer
	if err := svc.Summarize(ctx, &buf, hours, format, renderOpts); err != nil {
		return err
	}
	return pager.Run(fmt.Sprintf("%s · last %dh", appName, hours), buf.String())
}

// isTerminal reports whether w is a character device such as a TTY.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
