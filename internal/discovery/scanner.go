package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type boards announce under.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for board discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an entry announces port 0
	DefaultPort = 80
)

// Scanner handles mDNS board discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
	Service string
	Domain  string
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Service: ServiceType,
		Domain:  ServiceDomain,
	}
}

// Scan collects every relay board that answers before the timeout or ctx
// expires. Other services of the same type are ignored.
func (s *Scanner) Scan(ctx context.Context) ([]*Board, error) {
	return s.browse(ctx, func(*Board) bool { return false })
}

// Find returns the first board whose instance name matches.
func (s *Scanner) Find(ctx context.Context, instance string) (*Board, error) {
	boards, err := s.browse(ctx, func(b *Board) bool { return b.Instance == instance })
	if err != nil {
		return nil, err
	}
	for _, b := range boards {
		if b.Instance == instance {
			return b, nil
		}
	}
	return nil, fmt.Errorf("board %q not found within %s", instance, s.Timeout)
}

// browse runs one resolver session. stop is called for each board and ends
// the session early when it returns true.
func (s *Scanner) browse(ctx context.Context, stop func(*Board) bool) ([]*Board, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []*Board, 1)
	go func() {
		var boards []*Board
		seen := make(map[string]bool)
		for entry := range entries {
			board := parseServiceEntry(entry)
			if board == nil || seen[board.Instance+"/"+board.Addr()] {
				continue
			}
			seen[board.Instance+"/"+board.Addr()] = true
			boards = append(boards, board)
			if stop(board) {
				cancel()
			}
		}
		collected <- boards
	}()

	if err := resolver.Browse(ctx, s.Service, s.Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once the browse context ends.
	select {
	case boards := <-collected:
		return boards, nil
	case <-time.After(time.Second):
		return nil, fmt.Errorf("mDNS resolver did not finish")
	}
}

// parseServiceEntry converts a zeroconf entry into a Board. It returns nil
// for entries without the relay board TXT marker or without an address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Board {
	metadata := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	if metadata[TXTMarker] != "1" {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	relays, _ := strconv.Atoi(metadata[TXTRelays])

	return &Board{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Relays:       relays,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
