package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emurenMRz/mboxaddr/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve mailboxes and the address parser over HTTP",
		Long: `Serves the mbox files in a directory as a JSON API, together with
POST /api/addresses/parse and GET /api/capabilities.

Flags override the server section of the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Server
			f := cmd.Flags()
			if f.Changed("path") {
				cfg.MboxDir, _ = f.GetString("path")
			}
			if f.Changed("addr") {
				cfg.Addr, _ = f.GetString("addr")
			}
			if f.Changed("edit") {
				cfg.EditMode, _ = f.GetBool("edit")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, a.mode(cmd), a.logger).ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("path", ".", "directory holding mbox files")
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Bool("edit", false, "enable read/delete status updates")
	cmd.Flags().Bool("strict", false, "parse senders strictly by default")
	return cmd
}
