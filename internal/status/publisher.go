package status

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/relayboard/internal/logging"
)

// DefaultInterval is the snapshot period used when Options.Interval is zero.
const DefaultInterval = 2 * time.Second

// LevelReader is the view of the relay bank the publisher needs.
type LevelReader interface {
	Levels() []bool
}

// Counters supplies the system figures published with every snapshot.
type Counters interface {
	FreeMemory() uint64
	Elapsed() time.Duration
	Version() string
}

// Options configures a Publisher.
type Options struct {
	SSID     string
	Interval time.Duration

	// OnPublish hooks run on the publishing goroutine after each swap.
	// They must return quickly.
	OnPublish []func(*Document)
}

// Publisher periodically renders the relay bank and system counters into a
// Document and swaps it in atomically. Readers call Current and always get
// a complete document.
type Publisher struct {
	levels   LevelReader
	counters Counters
	opts     Options

	current atomic.Pointer[Document]
	seq     atomic.Uint64
}

// NewPublisher renders the first document immediately, so Current never
// returns nil.
func NewPublisher(levels LevelReader, counters Counters, opts Options) (*Publisher, error) {
	if levels == nil {
		return nil, errors.New("status: level reader required")
	}
	if counters == nil {
		return nil, errors.New("status: counters required")
	}
	if opts.Interval < 0 {
		return nil, errors.New("status: interval must be >= 0")
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}

	p := &Publisher{levels: levels, counters: counters, opts: opts}
	if _, err := p.PublishOnce(); err != nil {
		return nil, err
	}
	return p, nil
}

// Current returns the most recently published document.
func (p *Publisher) Current() *Document {
	return p.current.Load()
}

// Interval returns the publish period.
func (p *Publisher) Interval() time.Duration {
	return p.opts.Interval
}

// PublishOnce renders and publishes one document.
func (p *Publisher) PublishOnce() (*Document, error) {
	levels := p.levels.Levels()

	report := Report{
		Info: Info{
			SSID: p.opts.SSID,
			Heap: p.counters.FreeMemory(),
			SDK:  p.counters.Version(),
			Time: p.counters.Elapsed().Microseconds(),
		},
		Relays: make(map[string]int, len(levels)),
	}
	for i, on := range levels {
		v := 0
		if on {
			v = 1
		}
		report.Relays[RelayKey(i+1)] = v
	}

	doc, err := newDocument(report, p.seq.Add(1), time.Now())
	if err != nil {
		return nil, err
	}
	p.current.Store(doc)

	for _, hook := range p.opts.OnPublish {
		hook(doc)
	}
	return doc, nil
}

// Run publishes on every tick until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	logging.Info("Status publisher started", zap.Duration("interval", p.opts.Interval))

	for {
		select {
		case <-ctx.Done():
			logging.Info("Status publisher stopped")
			return
		case <-ticker.C:
			doc, err := p.PublishOnce()
			if err != nil {
				logging.Error("Status publish failed", zap.Error(err))
				continue
			}
			logging.Debug("Status published",
				zap.Uint64("seq", doc.Seq()),
				zap.Int("bytes", len(doc.Bytes())),
			)
		}
	}
}
