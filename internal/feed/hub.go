package feed

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/relayboard/internal/logging"
	"github.com/muurk/relayboard/internal/status"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 5 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Per-client queue; a client that falls this far behind is dropped
	sendBuffer = 8
)

// Path is where the hub is mounted on the companion HTTP listener.
const Path = "/ws/status"

// Hub fans status documents out to websocket subscribers. Each new
// subscriber receives the latest document immediately.
type Hub struct {
	upgrader websocket.Upgrader

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan []byte
	stopped    chan struct{}

	clients atomic.Int64
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. Run must be started before subscribers are served.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 4096,
			// The feed is read-only status, so any origin may watch it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan []byte, sendBuffer),
		stopped:    make(chan struct{}),
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

// Publish queues doc for every subscriber. It never blocks; if the hub is
// behind, the document is dropped and the next one supersedes it.
func (h *Hub) Publish(doc *status.Document) {
	select {
	case h.broadcast <- doc.Bytes():
	default:
		logging.Debug("Status feed busy, document dropped", zap.Uint64("seq", doc.Seq()))
	}
}

// Run owns the subscriber set until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	clients := make(map[*subscriber]bool)
	var latest []byte

	drop := func(s *subscriber) {
		if clients[s] {
			delete(clients, s)
			close(s.send)
			h.clients.Store(int64(len(clients)))
		}
	}

	for {
		select {
		case <-ctx.Done():
			for s := range clients {
				drop(s)
			}
			return

		case s := <-h.register:
			clients[s] = true
			h.clients.Store(int64(len(clients)))
			if latest != nil {
				s.send <- latest
			}

		case s := <-h.unregister:
			drop(s)

		case msg := <-h.broadcast:
			latest = msg
			for s := range clients {
				select {
				case s.send <- msg:
				default:
					logging.Warn("Status feed subscriber too slow, disconnecting",
						zap.String("remote_addr", s.conn.RemoteAddr().String()))
					drop(s)
				}
			}
		}
	}
}

// ServeHTTP upgrades the request and streams documents until the peer goes
// away or the hub stops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Debug("Status feed upgrade failed", zap.Error(err))
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- s:
	case <-h.stopped:
		_ = conn.Close()
		return
	}
	logging.LogConnection(conn.RemoteAddr().String(), "feed_subscribed")

	go h.writePump(s)
	h.readPump(s)
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		select {
		case h.unregister <- s:
		case <-h.stopped:
		}
		_ = s.conn.Close()
		logging.LogConnection(s.conn.RemoteAddr().String(), "feed_closed")
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Status feed read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
