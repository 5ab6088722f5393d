package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/relayboard/internal/status"
)

func sampleReport() *status.Report {
	return &status.Report{
		Info:   status.Info{SSID: "lab", Heap: 82124, SDK: "relayboard/dev", Time: 3_723_000_000},
		Relays: map[string]int{"RELAY1": 1, "RELAY2": 0},
	}
}

func TestRenderStatus(t *testing.T) {
	out := RenderStatus("10.0.0.5:80", sampleReport(), 60)

	for _, want := range []string{"RELAY BOARD", "10.0.0.5:80", "lab", "1h2m3s", "80.2 KiB", "RELAY1", "RELAY2", "ON", "OFF"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderStatus() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderFailure(t *testing.T) {
	out := RenderFailure("set failed", errors.New("boom"), "try again", 50)
	for _, want := range []string{FailureMarker, "set failed", "boom", "try again"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderFailure() missing %q:\n%s", want, out)
		}
	}
	if got := RenderSuccess("RELAY1 on"); !strings.Contains(got, "RELAY1 on") {
		t.Errorf("RenderSuccess() = %q", got)
	}
}

func TestClampWidth(t *testing.T) {
	if clampWidth(10) != MinTerminalWidth || clampWidth(500) != MaxContentWidth || clampWidth(70) != 70 {
		t.Error("clampWidth() does not clamp to the supported range")
	}
}

type fakeBoard struct {
	report *status.Report
	err    error
	sets   []string
}

func (f *fakeBoard) Status(context.Context) (*status.Report, error) {
	return f.report, f.err
}

func (f *fakeBoard) Set(_ context.Context, ch int, on bool) error {
	if on {
		f.sets = append(f.sets, status.RelayKey(ch)+"=on")
	} else {
		f.sets = append(f.sets, status.RelayKey(ch)+"=off")
	}
	return f.err
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWatchModel_Flow(t *testing.T) {
	board := &fakeBoard{report: sampleReport()}
	m := NewWatchModel(board, "lab-board", time.Second)

	if !strings.Contains(m.View(), "connecting to lab-board") {
		t.Errorf("initial view = %q", m.View())
	}

	// Resolve the first fetch by hand.
	msg := m.fetch(true)()
	next, cmd := m.Update(msg)
	m = next.(WatchModel)
	if cmd == nil {
		t.Error("a polled fetch should schedule the next tick")
	}
	if !strings.Contains(m.View(), "RELAY1") {
		t.Errorf("view after fetch = %q", m.View())
	}

	// RELAY1 is on, so "1" switches it off.
	next, cmd = m.Update(keyMsg("1"))
	m = next.(WatchModel)
	if cmd == nil {
		t.Fatal("toggle should return a command")
	}
	setResult := cmd()
	if got := strings.Join(board.sets, ","); got != "RELAY1=off" {
		t.Errorf("sets = %q", got)
	}

	next, cmd = m.Update(setResult)
	m = next.(WatchModel)
	if !strings.Contains(m.notice, "RELAY1 switched off") {
		t.Errorf("notice = %q", m.notice)
	}
	// The refresh after a toggle does not schedule another tick.
	next, cmd = m.Update(cmd())
	m = next.(WatchModel)
	if cmd != nil {
		t.Error("a manual fetch must not schedule a tick")
	}

	// RELAY3 is absent, so "3" switches it on.
	_, cmd = m.Update(keyMsg("3"))
	cmd()
	if got := board.sets[len(board.sets)-1]; got != "RELAY3=on" {
		t.Errorf("last set = %q", got)
	}

	if _, cmd := m.Update(keyMsg("q")); cmd == nil {
		t.Error("q should quit")
	}
}

func TestWatchModel_Errors(t *testing.T) {
	board := &fakeBoard{err: errors.New("refused")}
	m := NewWatchModel(board, "b", time.Second)

	next, _ := m.Update(m.fetch(true)())
	m = next.(WatchModel)
	if !strings.Contains(m.View(), "refused") {
		t.Errorf("view = %q", m.View())
	}

	board.err = nil
	board.report = sampleReport()
	next, _ = m.Update(m.fetch(true)())
	m = next.(WatchModel)

	board.err = errors.New("FAIL")
	next, cmd := m.Update(keyMsg("2"))
	m = next.(WatchModel)
	next, _ = m.Update(cmd())
	m = next.(WatchModel)
	if !strings.Contains(m.View(), "last request failed: FAIL") {
		t.Errorf("view = %q", m.View())
	}
}

func TestWatchModel_WindowSize(t *testing.T) {
	m := NewWatchModel(&fakeBoard{}, "b", time.Second)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 72, Height: 20})
	if got := next.(WatchModel).width; got != 72 {
		t.Errorf("width = %d", got)
	}
}
