package station

import (
	"errors"
	"sync"
	"time"

	"github.com/buddypal/wifiprov/pkg/connect"
)

// Station errors.
var (
	ErrUnknownNetwork = errors.New("network not found")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrStopped        = errors.New("station stopped")
)

// DefaultDelay is how long a simulated connection takes.
const DefaultDelay = 200 * time.Millisecond

// Network is one simulated access point.
type Network struct {
	SSID     string
	Password string
	RSSI     int

	// Hang makes connection attempts never resolve.
	Hang bool
}

// Simulated implements connect.Station against a table of networks.
type Simulated struct {
	delay time.Duration

	mu        sync.Mutex
	networks  map[string]Network
	connected bool
	current   string
	rssi      int
	timer     *time.Timer
	pending   chan error
}

// NewSimulated creates a station that knows networks. delay <= 0 uses
// DefaultDelay.
func NewSimulated(delay time.Duration, networks ...Network) *Simulated {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Simulated{delay: delay, networks: make(map[string]Network)}
	for _, n := range networks {
		s.networks[n.SSID] = n
	}
	return s
}

// AddNetwork adds or replaces a network.
func (s *Simulated) AddNetwork(n Network) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networks[n.SSID] = n
}

// Networks returns the known networks.
func (s *Simulated) Networks() []Network {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Network, 0, len(s.networks))
	for _, n := range s.networks {
		out = append(out, n)
	}
	return out
}

// Connect starts a simulated connection. Any earlier attempt is abandoned.
func (s *Simulated) Connect(ssid, password string) <-chan error {
	result := make(chan error, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortLocked()
	s.connected = false
	s.current = ""

	n, known := s.networks[ssid]
	if known && n.Hang {
		s.pending = result
		return result
	}

	s.pending = result
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pending != result {
			return
		}
		s.pending = nil
		s.timer = nil

		switch {
		case !known:
			result <- ErrUnknownNetwork
		case n.Password != password:
			result <- ErrAuthFailed
		default:
			s.connected = true
			s.current = ssid
			s.rssi = n.RSSI
			result <- nil
		}
	})
	return result
}

// IsConnected reports whether a simulated link is up.
func (s *Simulated) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// SSID returns the connected network, or "".
func (s *Simulated) SSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// RSSI returns the signal of the connected network.
func (s *Simulated) RSSI() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return 0
	}
	return s.rssi
}

// Stop abandons any attempt and drops the link. An abandoned attempt
// resolves with ErrStopped.
func (s *Simulated) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortLocked()
	s.connected = false
	s.current = ""
	return nil
}

func (s *Simulated) abortLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.pending != nil {
		s.pending <- ErrStopped
		s.pending = nil
	}
}

// Compile-time interface satisfaction check.
var _ connect.Station = (*Simulated)(nil)
