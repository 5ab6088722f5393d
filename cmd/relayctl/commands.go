package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/muurk/relayboard/internal/client"
	"github.com/muurk/relayboard/internal/discovery"
	"github.com/muurk/relayboard/internal/feed"
	"github.com/muurk/relayboard/internal/status"
	"github.com/muurk/relayboard/internal/ui"
)

var (
	deviceAddr   string
	timeout      time.Duration
	outputFormat string
	scanTimeout  time.Duration
	pollInterval time.Duration
	feedAddr     string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&deviceAddr, "device", "d", "", "Board address host[:port] (skips discovery)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Per-request timeout")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tailCmd)
}

// scanCmd discovers boards on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for relay boards on the network",
	Long: `Scan for relay boards using mDNS/DNS-SD discovery.

Only services carrying the relayboard=1 TXT record are listed.`,
	Example: `  relayctl scan
  relayctl scan --scan-timeout 10s`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to listen for answers")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for relay boards (timeout: %s)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout
	boards, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(boards) == 0 {
		fmt.Println("No boards found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure relayboard serve is running without --no-mdns")
		fmt.Println("  - Check that you are on the same network segment")
		fmt.Println("  - Try a longer --scan-timeout")
		fmt.Println("  - Use --device to give the address directly")
		return nil
	}

	fmt.Printf("Found %d board(s):\n\n", len(boards))
	for i, b := range boards {
		fmt.Printf("%d. %s\n", i+1, b.Instance)
		fmt.Printf("   Host:    %s\n", b.Hostname)
		fmt.Printf("   Address: %s\n", b.Addr())
		fmt.Printf("   Relays:  %d\n", b.Relays)
		if v := b.GetMetadata(discovery.TXTVersion); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		fmt.Println()
	}
	fmt.Println("Use 'relayctl status --device <address>' to read a board")
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show relay levels and board info",
	Example: `  relayctl status --device 192.168.4.16
  relayctl status --format json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd.Context())
	if err != nil {
		return err
	}
	report, err := c.Status(cmd.Context())
	if err != nil {
		return fail("Status request failed", err)
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Println(ui.RenderStatus(c.Addr, report, ui.GetTerminalWidth()))
	return nil
}

var setCmd = &cobra.Command{
	Use:   "set <channel> <on|off>",
	Short: "Switch a relay",
	Example: `  relayctl set 1 on --device 192.168.4.16
  relayctl set 3 off`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	channel, on, err := parseSetArgs(args)
	if err != nil {
		return err
	}
	c, err := newClient(cmd.Context())
	if err != nil {
		return err
	}
	if err := c.Set(cmd.Context(), channel, on); err != nil {
		return fail(fmt.Sprintf("Could not switch %s", status.RelayKey(channel)), err)
	}
	fmt.Println(ui.RenderSuccess(fmt.Sprintf("%s %s", status.RelayKey(channel), args[1])))
	return nil
}

// parseSetArgs accepts "<channel> <on|off>", with 1/0 and true/false also
// allowed for the level.
func parseSetArgs(args []string) (int, bool, error) {
	channel, err := strconv.Atoi(args[0])
	if err != nil || channel < 1 || channel > 9 {
		return 0, false, fmt.Errorf("channel must be a number from 1 to 9, got %q", args[0])
	}
	switch strings.ToLower(args[1]) {
	case "on", "1", "true", "high":
		return channel, true, nil
	case "off", "0", "false", "low":
		return channel, false, nil
	default:
		return 0, false, fmt.Errorf("level must be on or off, got %q", args[1])
	}
}

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Print the board's HTML page",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		body, err := c.Page(cmd.Context())
		if err != nil {
			return fail("Page request failed", err)
		}
		_, err = cmd.OutOrStdout().Write(body)
		return err
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a board interactively",
	Long: `Poll the board and redraw its status. Press 1-9 to toggle a relay,
r to refresh and q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		model := ui.NewWatchModel(c, c.Addr, pollInterval)
		_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&pollInterval, "interval", 2*time.Second, "Poll interval")
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream status documents from the websocket feed",
	Long: `Connect to the board's websocket feed and print every status document as
it is published. The feed lives on the metrics listener, not the control
socket, so its address is given with --feed.`,
	Example: `  relayctl tail --feed 192.168.4.16:9100`,
	RunE:    runTail,
}

func init() {
	tailCmd.Flags().StringVar(&feedAddr, "feed", "", "Metrics listener address host:port (required)")
	_ = tailCmd.MarkFlagRequired("feed")
}

func runTail(cmd *cobra.Command, args []string) error {
	url := "ws://" + feedAddr + feed.Path
	conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), url, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", url, err)
	}
	defer conn.Close()

	go func() {
		<-cmd.Context().Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if cmd.Context().Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("feed: %w", err)
		}
		report, err := status.ParseReport(msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping bad document: %v\n", err)
			continue
		}
		fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), summarize(report))
	}
}

// summarize prints levels as "RELAY1=1 RELAY2=0 ...".
func summarize(r *status.Report) string {
	levels := r.Levels()
	parts := make([]string, len(levels))
	for i, on := range levels {
		v := 0
		if on {
			v = 1
		}
		parts[i] = fmt.Sprintf("%s=%d", status.RelayKey(i+1), v)
	}
	return strings.Join(parts, " ")
}

// newClient builds a client for --device, or for the single board found by
// a short mDNS scan.
func newClient(ctx context.Context) (*client.Client, error) {
	addr := deviceAddr
	if addr == "" {
		fmt.Println("No device specified, attempting auto-discovery...")
		scanner := discovery.NewScanner()
		scanner.Timeout = 3 * time.Second
		boards, err := scanner.Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("discovery failed: %w", err)
		}
		switch len(boards) {
		case 0:
			return nil, fmt.Errorf("no boards found. Use --device to give the address")
		case 1:
			addr = boards[0].Addr()
			fmt.Printf("Found board: %s (%s)\n\n", boards[0].Instance, addr)
		default:
			fmt.Printf("Found %d boards:\n", len(boards))
			for i, b := range boards {
				fmt.Printf("%d. %s (%s)\n", i+1, b.Instance, b.Addr())
			}
			return nil, fmt.Errorf("multiple boards found. Use --device to pick one")
		}
	}

	c := client.New(addr)
	c.Timeout = timeout
	return c, nil
}

// fail prints a styled error box with a hint and returns a short error for
// the exit status.
func fail(title string, err error) error {
	fmt.Fprintln(os.Stderr, ui.RenderFailure(title, err, client.Hint(err), ui.GetTerminalWidth()))
	return fmt.Errorf("%s", strings.ToLower(title))
}
