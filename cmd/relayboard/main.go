// Relayboard is the relay board daemon.
//
// It drives a bank of relays through GPIO lines and exposes them on a small
// TCP control socket: "GET /h1" switches relay 1 on, "GET /l1" switches it
// off and "GET /j" returns a JSON status document. The board announces
// itself over mDNS and can optionally serve Prometheus metrics and a
// websocket status feed on a second listener.
//
// Usage:
//
//	relayboard serve [flags]
//
// See 'relayboard serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/relayboard/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "relayboard",
	Short: "Relay board daemon",
	Long: `Drives a bank of up to nine relays and serves them on a TCP control socket.

Use the separate 'relayctl' utility to find boards and switch relays.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// configPath is shared by every subcommand that reads the config file.
var configPath string

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: platform config dir, built-in defaults if absent)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relayboard %s (commit: %s, %s)\n", version.Version, version.Commit, version.SDK())
	},
}
