package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumex/internal/config"
	"github.com/jonathan/resumex/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Start an HTTP server that exposes resume parsing, job description analysis, matching, improvement and job search endpoints.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := opts.loadApp(ctx, func(cfg *config.Config) {
				if cmd.Flags().Changed("port") {
					cfg.Server.Port = port
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()       //nolint:errcheck
			defer a.Logger.Sync() //nolint:errcheck

			return server.New(a).Start(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (overrides server.port)")
	return cmd
}
