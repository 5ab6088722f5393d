package feed

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/relayboard/internal/gpio"
	"github.com/muurk/relayboard/internal/relay"
	"github.com/muurk/relayboard/internal/status"
)

type zeroCounters struct{}

func (zeroCounters) FreeMemory() uint64     { return 0 }
func (zeroCounters) Elapsed() time.Duration { return 0 }
func (zeroCounters) Version() string        { return "test" }

func newPublisher(t *testing.T, hub *Hub) (*relay.Bank, *status.Publisher) {
	t.Helper()
	bank, err := relay.New(gpio.NewMemory(), 2)
	require.NoError(t, err)
	pub, err := status.NewPublisher(bank, zeroCounters{}, status.Options{
		OnPublish: []func(*status.Document){hub.Publish},
	})
	require.NoError(t, err)
	return bank, pub
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + Path
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	return conn
}

func TestSubscriberGetsLatestThenUpdates(t *testing.T) {
	hub, url := startHub(t)
	bank, pub := newPublisher(t, hub)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	// The initial document arrives either as the latest on register or as a
	// broadcast, depending on which the hub sees first.
	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	report, err := status.ParseReport(first)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, report.Levels())

	require.NoError(t, bank.SetLevel(2, true))
	doc, err := pub.PublishOnce()
	require.NoError(t, err)

	// Skip anything queued before the change.
	for {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		if string(msg) == string(doc.Bytes()) {
			break
		}
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, pub := newPublisher(t, hub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 4*sendBuffer; i++ {
			_, _ = pub.PublishOnce()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no hub loop running")
	}
}

func TestRunStopClosesSubscribers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestPlainHTTPIsRejected(t *testing.T) {
	hub, _ := startHub(t)
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest("GET", Path, nil))
	assert.Equal(t, 400, rec.Code)
}
