package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/muurk/relayboard/internal/protocol"
	"github.com/muurk/relayboard/internal/relay"
	"github.com/muurk/relayboard/internal/status"
)

const (
	// DefaultPort is appended when an address has no port.
	DefaultPort = "80"

	// DefaultTimeout bounds one request, dial included.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the initial delay between attempts, doubled each time
	DefaultRetryDelay = 200 * time.Millisecond

	// maxResponse caps how much of a response is read.
	maxResponse = 64 << 10
)

// Client talks to one relay board. Every call opens a fresh connection, as
// the board closes after each response.
type Client struct {
	Addr       string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	dialer net.Dialer
}

// New creates a client for addr ("host" or "host:port").
func New(addr string) *Client {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, DefaultPort)
	}
	return &Client{
		Addr:       addr,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// Status fetches and decodes the status document.
func (c *Client) Status(ctx context.Context) (*status.Report, error) {
	resp, err := c.do(ctx, protocol.Request{Kind: protocol.KindStatus})
	if err != nil {
		return nil, err
	}
	if resp.ContentType != protocol.ContentTypeJSON {
		return nil, newProtocolError(fmt.Sprintf("unexpected content type %q", resp.ContentType), nil, c.Addr)
	}
	report, err := status.ParseReport(resp.Body)
	if err != nil {
		return nil, newProtocolError("bad status document", err, c.Addr)
	}
	return report, nil
}

// Set switches channel on or off. A FAIL answer returns an error wrapping
// ErrRejected.
func (c *Client) Set(ctx context.Context, channel int, on bool) error {
	if channel < 1 || channel > relay.MaxChannels {
		return newValidationError(fmt.Sprintf("channel %d out of range", channel))
	}
	resp, err := c.do(ctx, protocol.Request{Kind: protocol.KindRelayCommand, Channel: channel, Level: on})
	if err != nil {
		return err
	}
	switch {
	case resp.IsOK():
		return nil
	case resp.IsFail():
		return newRejectedError(channel, c.Addr)
	default:
		return newProtocolError(fmt.Sprintf("unexpected body %q", resp.Body), nil, c.Addr)
	}
}

// Page fetches the board's HTML page.
func (c *Client) Page(ctx context.Context) ([]byte, error) {
	resp, err := c.do(ctx, protocol.Request{Kind: protocol.KindPage})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Raw sends payload unchanged and returns everything the board wrote back,
// which is empty for requests the board drops.
func (c *Client) Raw(ctx context.Context, payload []byte) ([]byte, error) {
	return c.withRetry(ctx, payload)
}

func (c *Client) do(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	payload, err := protocol.Encode(req)
	if err != nil {
		return nil, newValidationError(err.Error())
	}
	raw, err := c.withRetry(ctx, payload)
	if err != nil {
		return nil, err
	}
	resp, err := protocol.ParseResponse(raw)
	if err != nil {
		return nil, newProtocolError("bad response", err, c.Addr)
	}
	return resp, nil
}

// withRetry repeats roundTrip with exponential backoff while the error is
// retryable. All board requests are idempotent.
func (c *Client) withRetry(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, Classify("cancelled", ctx.Err(), c.Addr)
			case <-time.After(delay):
			}
			delay *= 2
		}

		raw, err := c.roundTrip(ctx, payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, Classify("dial failed", err, c.Addr)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, Classify("write failed", err, c.Addr)
	}
	raw, err := io.ReadAll(io.LimitReader(conn, maxResponse))
	if err != nil {
		return nil, Classify("read failed", err, c.Addr)
	}
	return raw, nil
}
