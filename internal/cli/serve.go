// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noldarim/worklog/internal/logger"
	"github.com/noldarim/worklog/internal/server"
	"github.com/noldarim/worklog/internal/worklog"
)

type serveOptions struct {
	host string
	port int
}

func newServeCommand(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the work summary over HTTP",
		Long: `Starts a read-only HTTP API. Every request to /api/v1/summary reads the
transcripts again, so the answer always reflects the current logs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Listen port (overrides server.port)")

	return cmd
}

func runServe(cmd *cobra.Command, global *globalOptions, opts *serveOptions) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx, global)
	if err != nil {
		return err
	}
	defer env.close(context.Background())

	if opts.host != "" {
		env.cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		env.cfg.Server.Port = opts.port
	}

	srv := server.New(&env.cfg.Server, worklog.NewService(env.cfg))
	log := logger.GetCLILogger()
	log.Info().Str("addr", srv.Addr()).Msg("starting summary server")

	return srv.Run(ctx)
}
