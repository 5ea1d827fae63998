// Package discovery advertises a configuration console over mDNS so tooling
// on the local network can find devices without knowing their addresses.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Service constants.
const (
	// ServiceType is the DNS-SD service type for a configuration console.
	ServiceType = "_permaconf._tcp"

	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."
)

// Info describes one advertised console.
type Info struct {
	// InstanceName is the service instance name (e.g. "permaconf-unit7").
	InstanceName string

	// Port is the console's TCP port.
	Port int

	// DeviceID uniquely identifies the device (UUID).
	DeviceID string

	// Version is the firmware/application version string.
	Version string

	// GroupCount is the number of registered configuration groups.
	GroupCount int
}

// Advertiser publishes a console service over mDNS.
type Advertiser interface {
	// Advertise starts publishing the service. It replaces any previous
	// advertisement from this advertiser.
	Advertise(ctx context.Context, info *Info) error

	// Stop withdraws the advertisement.
	Stop()
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: 120 * time.Second}
}

// MDNSAdvertiser implements Advertiser using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates an mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	if config.TTL <= 0 {
		config.TTL = DefaultAdvertiserConfig().TTL
	}
	return &MDNSAdvertiser{config: config}
}

// getInterfaces returns the network interfaces to advertise on.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts publishing the console service.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info *Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	opts := []zeroconf.ServerOption{
		zeroconf.TTL(uint32(a.config.TTL.Seconds())),
	}

	server, err := zeroconf.Register(
		info.InstanceName,
		ServiceType,
		DefaultDomain,
		info.Port,
		BuildTXT(info),
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	a.server = server
	return nil
}

// Stop withdraws the advertisement.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Compile-time interface satisfaction check.
var _ Advertiser = (*MDNSAdvertiser)(nil)
