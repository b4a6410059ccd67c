package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/composable"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of composable",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "composable version %s\n", strings.TrimSpace(composable.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
