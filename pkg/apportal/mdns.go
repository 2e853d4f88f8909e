package apportal

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// mDNS constants for the setup form.
const (
	ServiceType = "_http._tcp"
	Domain      = "local."
)

// Announcement describes the form to announce.
type Announcement struct {
	Instance string
	Port     int
	Text     []string
}

// Announcer publishes the setup form on the local network.
type Announcer interface {
	Announce(ctx context.Context, a Announcement) error
	Stop() error
}

// MDNSConfig configures an MDNSAnnouncer.
type MDNSConfig struct {
	// Interface restricts announcements to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL is the record time-to-live. Zero uses the library default.
	TTL time.Duration
}

// MDNSAnnouncer implements Announcer using zeroconf.
type MDNSAnnouncer struct {
	config MDNSConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAnnouncer creates an mDNS announcer.
func NewMDNSAnnouncer(config MDNSConfig) *MDNSAnnouncer {
	return &MDNSAnnouncer{config: config}
}

func (m *MDNSAnnouncer) interfaces() []net.Interface {
	if m.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(m.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Announce registers the service, replacing an earlier announcement.
func (m *MDNSAnnouncer) Announce(_ context.Context, a Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		m.server.Shutdown()
		m.server = nil
	}

	var opts []zeroconf.ServerOption
	if m.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(m.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		a.Instance,
		ServiceType,
		Domain,
		a.Port,
		a.Text,
		m.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register setup form: %w", err)
	}
	m.server = server
	return nil
}

// Stop withdraws the announcement.
func (m *MDNSAnnouncer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		m.server.Shutdown()
		m.server = nil
	}
	return nil
}
