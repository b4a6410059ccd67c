package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/composable/internal/cli"
	"github.com/aretw0/composable/internal/logging"
	"github.com/aretw0/composable/pkg/adapters/mcp"
	"github.com/aretw0/composable/pkg/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [feature]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Hosts one feature store as an MCP server, so agents can read its state
and send actions through the get_state, list_actions and send_action tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: cli.Features(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		level, _ := logging.ParseLevel(cfg.Log.Level)
		// Stdout carries JSON-RPC; logs always go to stderr as JSON.
		logger := logging.New(level, logging.FormatJSON)
		log.SetOutput(os.Stderr)

		feature := "counter"
		if len(args) > 0 {
			feature = args[0]
		}
		hosted, err := cli.Host(feature, cli.LiveDeps(), store.WithLogger(logger))
		if err != nil {
			return err
		}
		defer hosted.Close()

		srv := mcp.NewServer(hosted, mcp.WithLogger(logger))

		transport, _ := cmd.Flags().GetString("transport")
		switch transport {
		case "stdio":
			logger.Info("Starting composable MCP Server (Stdio)", "feature", feature)
			return srv.ServeStdio()
		case "sse":
			port, _ := cmd.Flags().GetInt("port")
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			err := srv.ServeSSE(sigCtx, fmt.Sprintf(":%d", port), fmt.Sprintf("http://localhost:%d", port))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
