package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error other than the ones below
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the board did not answer in time
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeProtocol indicates a response that could not be parsed
	ErrTypeProtocol
	// ErrTypeRejected indicates the board answered FAIL
	ErrTypeRejected
	// ErrTypeValidation indicates a request that cannot be encoded
	ErrTypeValidation
)

// ErrRejected is wrapped by every ErrTypeRejected error.
var ErrRejected = errors.New("board rejected the command")

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeRejected:
		return "Rejected"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by every Client operation.
type Error struct {
	Type      ErrorType
	Message   string
	Addr      string // board address, for hints
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify turns a dial or I/O error into an *Error.
func Classify(message string, err error, addr string) *Error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}

	e := &Error{Type: ErrTypeNetwork, Message: message, Addr: addr, Err: err, Retryable: true}

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		e.Type = ErrTypeTimeout
	case errors.As(err, &dnsErr):
		e.Type = ErrTypeDNS
		e.Retryable = dnsErr.IsTemporary
	case errors.Is(err, syscall.ECONNREFUSED):
		e.Type = ErrTypeConnectionRefused
	}
	return e
}

func newProtocolError(message string, err error, addr string) *Error {
	return &Error{Type: ErrTypeProtocol, Message: message, Addr: addr, Err: err}
}

func newRejectedError(channel int, addr string) *Error {
	return &Error{
		Type:    ErrTypeRejected,
		Message: fmt.Sprintf("relay %d", channel),
		Addr:    addr,
		Err:     ErrRejected,
	}
}

func newValidationError(message string) *Error {
	return &Error{Type: ErrTypeValidation, Message: message}
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// TypeOf returns the error's category, or -1 if err is not an *Error.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return -1
}

// Hint returns user-facing troubleshooting advice for err.
func Hint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The board did not respond in time.",
			"Troubleshooting:",
			"  • Another client may be holding the control socket",
			"  • Check that the board is powered and on the network",
			"  • Try a longer --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The board refused the connection.",
			"Troubleshooting:",
			"  • Check that relayboard serve is running",
			"  • Verify the port (default is 80)",
			"  • Run relayctl scan to find the announced address",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the board hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Run relayctl scan to find boards via mDNS",
		}, "\n")

	case ErrTypeRejected:
		return "The board answered FAIL. The channel is probably not configured on this board; relayctl status lists the valid ones."

	case ErrTypeProtocol:
		return "The response was not understood. Check that the address points at a relay board and not another web server."

	case ErrTypeValidation:
		return "Channels are single digits from 1 to 9."

	default:
		hint := []string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check your network connection",
		}
		if e.Addr != "" {
			host, _, _ := net.SplitHostPort(e.Addr)
			hint = append(hint, "  • Try pinging the board: ping "+host)
		}
		return strings.Join(hint, "\n")
	}
}
