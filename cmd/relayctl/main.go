// Relayctl is the command line controller for relay boards.
//
// It finds boards over mDNS, prints their status, switches relays and can
// follow a board interactively or through its websocket feed.
//
// Usage:
//
//	relayctl [command] [flags]
//
// See 'relayctl --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/muurk/relayboard/internal/logging"
	"github.com/muurk/relayboard/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Relay board controller",
	Long: `Find relay boards on the network, read their status and switch relays.

Without --device, commands discover the board over mDNS and use it if exactly
one answers.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless RELAYBOARD_LOG_LEVEL is set, so styled output stays clean.
		return logging.Initialize("")
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relayctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
