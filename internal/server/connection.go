package server

import (
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/relayboard/internal/logging"
	"github.com/muurk/relayboard/internal/protocol"
	"github.com/muurk/relayboard/internal/relay"
)

// Closing a socket with unread request bytes sends a reset, and the client
// may lose the response. After a request has been read, the write side is
// shut first and the rest of the request is discarded within these limits.
const (
	lingerTimeout = 500 * time.Millisecond
	lingerLimit   = 256 << 10
)

// handleConnection serves exactly one request on conn and closes it.
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	drain := false
	defer func() {
		if drain {
			closeWriteAndDrain(conn)
		}
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "connection_closed")
	}()
	logging.LogConnection(remoteAddr, "connection_accepted")

	if s.config.ConnTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(s.config.ConnTimeout)); err != nil {
			logging.Warn("Failed to set connection deadline",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			s.config.Metrics.ObserveConnectionError("deadline")
			return
		}
	}

	buf := make([]byte, s.config.ReadBufferSize)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		if err != nil {
			logging.Warn("Failed to read request",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			s.config.Metrics.ObserveConnectionError("read")
		}
		return
	}
	drain = true
	buf = buf[:n]
	logging.LogRawBytes("Request bytes", buf)

	req := protocol.Decode(buf)
	s.config.Metrics.ObserveRequest(req.Kind.String())

	resp := s.dispatch(remoteAddr, req)
	if resp == nil {
		return
	}
	if _, err := conn.Write(resp); err != nil {
		logging.Warn("Failed to write response",
			zap.String("remote_addr", remoteAddr),
			zap.String("kind", req.Kind.String()),
			zap.Error(err),
		)
		s.config.Metrics.ObserveConnectionError("write")
	}
}

// closeWriteAndDrain half-closes conn and reads off whatever the client is
// still sending, so the close that follows ends with a FIN.
func closeWriteAndDrain(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, lingerLimit))
}

// dispatch builds the response for req, applying any relay change. A nil
// result means the connection is closed without a response.
func (s *Server) dispatch(remoteAddr string, req protocol.Request) []byte {
	switch req.Kind {
	case protocol.KindStatus:
		doc := s.config.Status.Current()
		logging.LogRequest(remoteAddr, req.Kind.String(),
			zap.Uint64("seq", doc.Seq()),
			zap.Time("published_at", doc.PublishedAt()),
		)
		return join(protocol.HeaderJSON, doc.Bytes())

	case protocol.KindRelayCommand:
		err := s.config.Bank.SetLevel(req.Channel, req.Level)
		s.config.Metrics.ObserveRelayCommand(req.Channel, err == nil)
		if err != nil {
			if errors.Is(err, relay.ErrInvalidChannel) {
				logging.Warn("Relay command rejected",
					zap.String("remote_addr", remoteAddr),
					zap.Int("channel", req.Channel),
				)
			} else {
				logging.Error("Relay command failed",
					zap.String("remote_addr", remoteAddr),
					zap.Int("channel", req.Channel),
					zap.Error(err),
				)
			}
			return join(protocol.HeaderHTML, []byte(protocol.BodyFail))
		}
		logging.LogRequest(remoteAddr, req.Kind.String(),
			zap.Int("channel", req.Channel),
			zap.Bool("level", req.Level),
		)
		return join(protocol.HeaderHTML, []byte(protocol.BodyOK))

	case protocol.KindInvalidCommand:
		logging.LogRequest(remoteAddr, req.Kind.String())
		return join(protocol.HeaderHTML, []byte(protocol.BodyFail))

	case protocol.KindPage:
		logging.LogRequest(remoteAddr, req.Kind.String())
		return join(protocol.HeaderHTML, s.config.Page)

	default:
		logging.Debug("Malformed request dropped", zap.String("remote_addr", remoteAddr))
		return nil
	}
}

// join writes header and body as one buffer so a response is a single Write.
func join(header string, body []byte) []byte {
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	return append(out, body...)
}
