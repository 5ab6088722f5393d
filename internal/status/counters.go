package status

import (
	"runtime"
	"time"

	"github.com/muurk/relayboard/internal/version"
)

// RuntimeCounters reports figures from the Go runtime.
type RuntimeCounters struct {
	start time.Time
	sdk   string
}

// NewRuntimeCounters starts the elapsed-time clock now.
func NewRuntimeCounters() *RuntimeCounters {
	return &RuntimeCounters{start: time.Now(), sdk: version.SDK()}
}

// FreeMemory returns heap bytes held by the runtime but not in use.
func (c *RuntimeCounters) FreeMemory() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapIdle - m.HeapReleased
}

// Elapsed returns the time since the counters were created.
func (c *RuntimeCounters) Elapsed() time.Duration {
	return time.Since(c.start)
}

// Version returns the build's SDK string.
func (c *RuntimeCounters) Version() string {
	return c.sdk
}
