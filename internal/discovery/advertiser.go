package discovery

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/relayboard/internal/logging"
)

// TXT record keys published by Advertise.
const (
	TXTMarker  = "relayboard"
	TXTRelays  = "relays"
	TXTPath    = "path"
	TXTVersion = "version"
)

// AdvertiseOptions describes the service announcement.
type AdvertiseOptions struct {
	Instance string
	Service  string // default ServiceType
	Domain   string // default ServiceDomain
	Port     int
	Relays   int
	Version  string
}

// Advertiser keeps a board announced until Shutdown.
type Advertiser struct {
	server *zeroconf.Server
	opts   AdvertiseOptions
}

// TXTRecords builds the TXT records that identify a relay board.
func TXTRecords(relays int, version string) []string {
	txt := []string{
		TXTMarker + "=1",
		TXTRelays + "=" + strconv.Itoa(relays),
		TXTPath + "=/",
	}
	if version != "" {
		txt = append(txt, TXTVersion+"="+version)
	}
	return txt
}

// Advertise registers the board on all multicast-capable interfaces.
func Advertise(opts AdvertiseOptions) (*Advertiser, error) {
	if opts.Instance == "" {
		return nil, errors.New("discovery: instance name is required")
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("discovery: invalid port %d", opts.Port)
	}
	if opts.Service == "" {
		opts.Service = ServiceType
	}
	if opts.Domain == "" {
		opts.Domain = ServiceDomain
	}

	server, err := zeroconf.Register(opts.Instance, opts.Service, opts.Domain, opts.Port,
		TXTRecords(opts.Relays, opts.Version), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("mDNS service announced",
		zap.String("instance", opts.Instance),
		zap.String("service", opts.Service),
		zap.String("domain", opts.Domain),
		zap.Int("port", opts.Port),
	)
	return &Advertiser{server: server, opts: opts}, nil
}

// Shutdown withdraws the announcement.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Info("mDNS service withdrawn", zap.String("instance", a.opts.Instance))
}
