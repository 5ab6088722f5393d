package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/relayboard/internal/status"
)

// RenderStatus draws a status report as a framed panel: board info on top,
// one row per relay below.
func RenderStatus(board string, report *status.Report, width int) string {
	var lines []string

	lines = append(lines, TitleStyle.Render("RELAY BOARD")+"  "+SubtitleStyle.Render(board))
	lines = append(lines, "")
	lines = append(lines, detail("SSID", report.Info.SSID))
	lines = append(lines, detail("Uptime", formatUptime(report.Uptime())))
	lines = append(lines, detail("Free heap", formatBytes(report.Info.Heap)))
	lines = append(lines, detail("SDK", report.Info.SDK))
	lines = append(lines, "")

	for i, on := range report.Levels() {
		lines = append(lines, relayRow(i+1, on))
	}

	return boxStyle(width, PrimaryColor).Render(strings.Join(lines, "\n"))
}

func detail(key, value string) string {
	return KeyStyle.Render(key+":") + " " + ValueStyle.Render(value)
}

func relayRow(channel int, on bool) string {
	badge := RelayOffStyle.Render("OFF")
	if on {
		badge = RelayOnStyle.Render(" ON")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		KeyStyle.Render(status.RelayKey(channel)), " ", badge)
}

// formatUptime prints whole seconds, e.g. "1h2m3s".
func formatUptime(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

// formatBytes prints n in the largest binary unit that keeps it at or
// above 1, e.g. "80.2 KiB".
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// RenderSuccess renders a one-line confirmation.
func RenderSuccess(message string) string {
	return SuccessTitleStyle.Render(SuccessMarker + " " + message)
}

// RenderFailure renders an error with an optional multi-line hint.
func RenderFailure(title string, err error, hint string, width int) string {
	lines := []string{
		ErrorTitleStyle.Render(fmt.Sprintf("%s %s", FailureMarker, title)),
		ErrorMessageStyle.Render(err.Error()),
	}
	if hint != "" {
		lines = append(lines, "", HintStyle.Render(hint))
	}
	return boxStyle(width, ErrorColor).Render(strings.Join(lines, "\n"))
}
