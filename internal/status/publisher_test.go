package status

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/relayboard/internal/gpio"
	"github.com/muurk/relayboard/internal/relay"
)

type fixedCounters struct {
	heap    uint64
	elapsed time.Duration
	sdk     string
}

func (f fixedCounters) FreeMemory() uint64     { return f.heap }
func (f fixedCounters) Elapsed() time.Duration { return f.elapsed }
func (f fixedCounters) Version() string        { return f.sdk }

func newTestBank(t *testing.T, n int) *relay.Bank {
	t.Helper()
	bank, err := relay.New(gpio.NewMemory(), n)
	require.NoError(t, err)
	return bank
}

func TestNewPublisher_RendersImmediately(t *testing.T) {
	bank := newTestBank(t, 4)
	pub, err := NewPublisher(bank, fixedCounters{heap: 1024, elapsed: 3 * time.Second, sdk: "test-sdk"},
		Options{SSID: "lab"})
	require.NoError(t, err)

	doc := pub.Current()
	require.NotNil(t, doc)
	assert.Equal(t, uint64(1), doc.Seq())
	assert.Equal(t, DefaultInterval, pub.Interval())

	assert.JSONEq(t,
		`{"info":{"ssid":"lab","heap":1024,"sdk":"test-sdk","time":3000000},
		  "relays":{"RELAY1":0,"RELAY2":0,"RELAY3":0,"RELAY4":0}}`,
		string(doc.Bytes()))
}

func TestNewPublisher_Validation(t *testing.T) {
	bank := newTestBank(t, 1)

	_, err := NewPublisher(nil, fixedCounters{}, Options{})
	assert.Error(t, err)
	_, err = NewPublisher(bank, nil, Options{})
	assert.Error(t, err)
	_, err = NewPublisher(bank, fixedCounters{}, Options{Interval: -time.Second})
	assert.Error(t, err)
}

func TestPublishOnce_ReflectsBank(t *testing.T) {
	bank := newTestBank(t, 4)
	pub, err := NewPublisher(bank, fixedCounters{}, Options{})
	require.NoError(t, err)

	require.NoError(t, bank.SetLevel(1, true))
	require.NoError(t, bank.SetLevel(3, true))

	// Not yet republished: the old document is still current.
	old := pub.Current().Report()
	on, _ := old.Relay(1)
	assert.False(t, on)

	first := pub.Current()
	doc, err := pub.PublishOnce()
	require.NoError(t, err)
	assert.Same(t, doc, pub.Current())
	assert.Equal(t, uint64(2), doc.Seq())
	assert.False(t, doc.PublishedAt().IsZero())
	assert.False(t, doc.PublishedAt().Before(first.PublishedAt()))

	report, err := ParseReport(doc.Bytes())
	require.NoError(t, err)
	assert.Equal(t, bank.Levels(), report.Levels())
}

func TestPublishOnce_RunsHooks(t *testing.T) {
	bank := newTestBank(t, 2)
	var seen []uint64
	_, err := NewPublisher(bank, fixedCounters{}, Options{
		OnPublish: []func(*Document){func(d *Document) { seen = append(seen, d.Seq()) }},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, seen)
}

func TestDocument_ReportIsCopy(t *testing.T) {
	bank := newTestBank(t, 2)
	pub, err := NewPublisher(bank, fixedCounters{}, Options{})
	require.NoError(t, err)

	doc := pub.Current()
	r := doc.Report()
	r.Relays["RELAY1"] = 1

	again := doc.Report()
	assert.Equal(t, 0, again.Relays["RELAY1"])
}

func TestRun_PublishesUntilCancelled(t *testing.T) {
	bank := newTestBank(t, 2)
	pub, err := NewPublisher(bank, fixedCounters{}, Options{Interval: 5 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pub.Run(ctx)
		close(done)
	}()

	require.NoError(t, bank.SetLevel(2, true))
	require.Eventually(t, func() bool {
		r := pub.Current().Report()
		on, _ := r.Relay(2)
		return on
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentPublishAndSet_NoTornDocuments(t *testing.T) {
	bank := newTestBank(t, 4)
	pub, err := NewPublisher(bank, fixedCounters{}, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(2)
	go func() {
		defer wg.Done()
		lvl := false
		for {
			select {
			case <-stop:
				return
			default:
			}
			lvl = !lvl
			_ = bank.SetLevel(1, lvl)
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, _ = pub.PublishOnce()
		}
	}()

	for i := 0; i < 1000; i++ {
		doc := pub.Current()
		var r Report
		require.NoError(t, json.Unmarshal(doc.Bytes(), &r), "document must always be valid JSON")
		require.Len(t, r.Relays, 4)
		v := r.Relays["RELAY1"]
		require.True(t, v == 0 || v == 1, "RELAY1 = %d", v)
	}
	close(stop)
	wg.Wait()
}

func TestRuntimeCounters(t *testing.T) {
	c := NewRuntimeCounters()
	time.Sleep(time.Millisecond)

	assert.Greater(t, c.Elapsed(), time.Duration(0))
	assert.NotEmpty(t, c.Version())
	_ = c.FreeMemory()
}

func TestParseReport_Errors(t *testing.T) {
	_, err := ParseReport([]byte("not json"))
	assert.Error(t, err)

	_, err = ParseReport([]byte(`{"info":{}}`))
	assert.Error(t, err)

	r, err := ParseReport([]byte(`{"info":{"time":2500000},"relays":{"RELAY2":1}}`))
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, r.Levels())
	assert.Equal(t, 2500*time.Millisecond, r.Uptime())
}
