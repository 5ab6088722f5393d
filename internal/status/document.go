package status

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// relayKeyPrefix prefixes channel numbers in the "relays" object.
const relayKeyPrefix = "RELAY"

// Info is the system part of the status document.
type Info struct {
	SSID string `json:"ssid"`
	Heap uint64 `json:"heap"`
	SDK  string `json:"sdk"`
	// Time is the elapsed time since start in microseconds.
	Time int64 `json:"time"`
}

// Report is the decoded status document.
//
//	{"info":{"ssid":"relayboard","heap":81234,"sdk":"...","time":1234567},
//	 "relays":{"RELAY1":1,"RELAY2":0,"RELAY3":0,"RELAY4":0}}
type Report struct {
	Info   Info           `json:"info"`
	Relays map[string]int `json:"relays"`
}

// RelayKey returns the document key for channel.
func RelayKey(channel int) string {
	return relayKeyPrefix + strconv.Itoa(channel)
}

// Relay reports the level of channel and whether the document has it.
func (r *Report) Relay(channel int) (level bool, ok bool) {
	v, ok := r.Relays[RelayKey(channel)]
	return v != 0, ok
}

// Levels returns channel levels in order, index 0 being channel 1. Missing
// channels read as off; the slice is as long as the highest channel present.
func (r *Report) Levels() []bool {
	highest := 0
	for key := range r.Relays {
		n, err := strconv.Atoi(strings.TrimPrefix(key, relayKeyPrefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	out := make([]bool, highest)
	for i := range out {
		out[i], _ = r.Relay(i + 1)
	}
	return out
}

// Uptime converts Info.Time to a duration.
func (r *Report) Uptime() time.Duration {
	return time.Duration(r.Info.Time) * time.Microsecond
}

// ParseReport decodes a status document.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("status: decode document: %w", err)
	}
	if r.Relays == nil {
		return nil, fmt.Errorf("status: document has no relays object")
	}
	return &r, nil
}

// Document is one rendered, immutable snapshot. Its bytes are never written
// after publication; a new snapshot is a new Document.
type Document struct {
	raw         []byte
	report      Report
	seq         uint64
	publishedAt time.Time
}

func newDocument(report Report, seq uint64, at time.Time) (*Document, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("status: encode document: %w", err)
	}
	return &Document{
		raw:         raw,
		report:      report,
		seq:         seq,
		publishedAt: at,
	}, nil
}

// Bytes returns the rendered JSON. Callers must not modify the slice.
func (d *Document) Bytes() []byte {
	return d.raw
}

// Report returns a copy of the decoded document.
func (d *Document) Report() Report {
	r := d.report
	r.Relays = make(map[string]int, len(d.report.Relays))
	for k, v := range d.report.Relays {
		r.Relays[k] = v
	}
	return r
}

// Seq is the publication sequence number, starting at 1.
func (d *Document) Seq() uint64 {
	return d.seq
}

// PublishedAt is the wall-clock time the document was rendered.
func (d *Document) PublishedAt() time.Time {
	return d.publishedAt
}
