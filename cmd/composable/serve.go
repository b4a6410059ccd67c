package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/composable/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve [feature]",
	Short: "Serve a feature over HTTP, SSE and websocket",
	Long: `Hosts one feature store and exposes it over HTTP:

  GET  /state    current snapshot
  GET  /actions  accepted actions and their payload schema
  POST /actions  send an action ({"type": "...", "payload": {...}})
  GET  /events   server-sent snapshots
  GET  /ws       websocket: snapshots out, action requests in
  GET  /metrics  Prometheus metrics, when enabled

With redis.addr configured, every snapshot is mirrored to Redis as well.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: cli.Features(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		feature := "counter"
		if len(args) > 0 {
			feature = args[0]
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		rt, err := cli.Build(sigCtx, cfg, feature, cli.LiveDeps(), logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		err = cli.Serve(sigCtx, rt)
		logger.Info("server stopped", "signal", sigCtx.Signal())
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address, overrides http.addr")
}
