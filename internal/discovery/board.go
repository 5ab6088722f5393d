package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Board is a relay board found on the network.
type Board struct {
	// Instance is the advertised instance name (e.g., "relayboard")
	Instance string

	// Hostname is the mDNS hostname (e.g., "pi-relay.local.")
	Hostname string

	// IP is the board address, IPv4 when one was announced
	IP string

	// Port is the control socket port
	Port int

	// Relays is the advertised channel count, 0 if the TXT record was absent
	Relays int

	// Metadata holds every TXT record, "key=value" split on the first '='
	Metadata map[string]string

	DiscoveredAt time.Time
}

func (b *Board) String() string {
	return fmt.Sprintf("Relay board %s (%s) at %s, %d relays", b.Instance, b.Hostname, b.Addr(), b.Relays)
}

// Addr returns host:port suitable for dialing the control socket.
func (b *Board) Addr() string {
	return net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Board) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
