package protocol

import (
	"bytes"
	"errors"
	"strings"
)

// Fixed response headers. The board always closes the connection after the
// body, so no Content-Length is sent.
const (
	HeaderHTML = "HTTP/1.1 200 OK\r\nContent-type: text/html\r\n\r\n"
	HeaderJSON = "HTTP/1.1 200 OK\r\nContent-type: application/json\r\n\r\n"
)

// Relay command bodies.
const (
	BodyOK   = "OK\n"
	BodyFail = "FAIL\n"
)

// Content types reported by the fixed headers.
const (
	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
)

// ErrNoHeader is returned when a response has no header terminator.
var ErrNoHeader = errors.New("protocol: response has no header terminator")

// Response is a parsed board response.
type Response struct {
	StatusLine  string
	ContentType string
	Body        []byte
}

// ParseResponse splits raw into header and body and extracts the content type.
func ParseResponse(raw []byte) (*Response, error) {
	idx := bytes.Index(raw, []byte("\r\n\r\n"))
	if idx < 0 {
		return nil, ErrNoHeader
	}

	lines := strings.Split(string(raw[:idx]), "\r\n")
	resp := &Response{
		StatusLine: lines[0],
		Body:       raw[idx+4:],
	}
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "Content-type") {
			resp.ContentType = strings.TrimSpace(value)
		}
	}
	return resp, nil
}

// IsOK reports whether the body is the relay command success body.
func (r *Response) IsOK() bool {
	return strings.TrimSpace(string(r.Body)) == strings.TrimSpace(BodyOK)
}

// IsFail reports whether the body is the relay command failure body.
func (r *Response) IsFail() bool {
	return strings.TrimSpace(string(r.Body)) == strings.TrimSpace(BodyFail)
}
