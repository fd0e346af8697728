package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "safetravel",
		Short:         "SafeTravel emergency session engine",
		Long:          "Runs emergency sessions, notifies trusted contacts and serves the tiered emergency access path.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (env only when empty)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd(&configPath))
	cmd.AddCommand(newAccessCmd(&configPath))
	cmd.AddCommand(newVaultCmd(&configPath))
	cmd.AddCommand(newContactsCmd(&configPath))
	cmd.AddCommand(newSessionsCmd(&configPath))
	cmd.AddCommand(newMessagesCmd(&configPath))
	cmd.AddCommand(newCleanupCmd(&configPath))
	cmd.AddCommand(newSettingsCmd(&configPath))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "safetravel %s (commit: %s)\n", Version, Commit)
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
