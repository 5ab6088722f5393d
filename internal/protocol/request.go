package protocol

import (
	"bytes"
	"fmt"
)

// Request line constants. The decoder only looks at the first bytes of the
// buffer: headers, HTTP version and line terminators are never validated.
const (
	// RequestPrefix must open every request.
	RequestPrefix = "GET /"

	// SentinelStatus selects the JSON status document.
	SentinelStatus byte = 'j'

	// SelectorHigh and SelectorLow precede the channel digit of a relay command.
	SelectorHigh byte = 'h'
	SelectorLow  byte = 'l'
)

// Kind classifies an inbound request.
type Kind int

const (
	// KindMalformed: shorter than the prefix or not a GET. No response.
	KindMalformed Kind = iota
	// KindStatus: "GET /j...". JSON header plus the current status document.
	KindStatus
	// KindRelayCommand: "GET /<h|l><digit>...". HTML header plus OK or FAIL.
	KindRelayCommand
	// KindInvalidCommand: long enough for a command but the selector byte is
	// not recognised. HTML header plus FAIL.
	KindInvalidCommand
	// KindPage: anything else after the prefix. HTML header plus default page.
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindStatus:
		return "status"
	case KindRelayCommand:
		return "relay_command"
	case KindInvalidCommand:
		return "invalid_command"
	case KindPage:
		return "page"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Request is the decoded form of one inbound buffer.
type Request struct {
	Kind Kind

	// Channel and Level are set for KindRelayCommand only. Channel is the
	// raw digit value and is not range-checked here.
	Channel int
	Level   bool
}

// selectorLevels maps a selector byte to the level it requests.
var selectorLevels = map[byte]bool{
	SelectorHigh: true,
	SelectorLow:  false,
}

// levelSelectors is the inverse of selectorLevels, used by Encode.
var levelSelectors = map[bool]byte{
	true:  SelectorHigh,
	false: SelectorLow,
}

// Decode classifies buf. Byte positions are relative to the end of
// RequestPrefix:
//
//	len < 5 or no "GET /" prefix       -> KindMalformed
//	rest[0] == 'j'                      -> KindStatus
//	len(rest) >= 2, rest[0] in {h, l}   -> KindRelayCommand{Channel: rest[1]-'0'}
//	len(rest) >= 2, other selector      -> KindInvalidCommand
//	otherwise                           -> KindPage
func Decode(buf []byte) Request {
	if !bytes.HasPrefix(buf, []byte(RequestPrefix)) {
		return Request{Kind: KindMalformed}
	}
	rest := buf[len(RequestPrefix):]

	switch {
	case len(rest) >= 1 && rest[0] == SentinelStatus:
		return Request{Kind: KindStatus}

	case len(rest) >= 2:
		level, ok := selectorLevels[rest[0]]
		if !ok {
			return Request{Kind: KindInvalidCommand}
		}
		return Request{
			Kind:    KindRelayCommand,
			Channel: int(rest[1]) - '0',
			Level:   level,
		}

	default:
		return Request{Kind: KindPage}
	}
}

// Encode builds the bytes a client sends for r. Only KindStatus,
// KindRelayCommand (single-digit channel) and KindPage can be encoded.
func Encode(r Request) ([]byte, error) {
	switch r.Kind {
	case KindStatus:
		return []byte(RequestPrefix + string(SentinelStatus) + "\r\n\r\n"), nil

	case KindRelayCommand:
		if r.Channel < 0 || r.Channel > 9 {
			return nil, fmt.Errorf("protocol: channel %d is not a single digit", r.Channel)
		}
		line := []byte(RequestPrefix)
		line = append(line, levelSelectors[r.Level], byte('0'+r.Channel))
		return append(line, "\r\n\r\n"...), nil

	case KindPage:
		// Anything longer than one byte after the prefix would be read as a
		// command, so the page request is the bare prefix.
		return []byte(RequestPrefix), nil

	default:
		return nil, fmt.Errorf("protocol: cannot encode %s request", r.Kind)
	}
}
