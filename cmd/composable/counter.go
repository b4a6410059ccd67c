package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/composable/internal/cli"
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Run the counter interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		_, err = cli.RunCounter(sigCtx, cli.CounterOptions{
			In:     os.Stdin,
			Out:    os.Stdout,
			Deps:   cli.LiveDeps(),
			Logger: logger,
			Quiet:  quiet,
		})
		if sig := sigCtx.Signal(); sig != nil {
			logger.Info("counter stopped", "signal", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(counterCmd)
	counterCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and help")
}
