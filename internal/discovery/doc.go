// Package discovery announces relay boards over mDNS and finds them again.
//
// A board registers under the "_http._tcp" service type with TXT records
// that mark it as a relay board:
//
//	relayboard=1  relays=4  path=/  version=v1.2.0
//
// Scanner browses the same service type and keeps only entries carrying the
// relayboard=1 marker, so ordinary web servers on the network are skipped.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Boards must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
