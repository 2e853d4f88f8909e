package apportal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/buddypal/wifiprov/pkg/wifi"
)

// Access point errors.
var (
	ErrNotRunning    = errors.New("access point not running")
	ErrInvalidConfig = errors.New("invalid access point configuration")
)

// DefaultURL is the address of the setup form on the hotspot.
const DefaultURL = "http://192.168.4.1"

// AccessPoint is the hotspot and its setup form.
type AccessPoint interface {
	// Start opens the hotspot and the form.
	Start(ctx context.Context) error

	// Stop closes the hotspot.
	Stop() error

	// SSID returns the hotspot name.
	SSID() string

	// WebServerURL returns the address of the form.
	WebServerURL() string

	// Submissions delivers the credentials entered in the form.
	Submissions() <-chan wifi.Credentials
}

// LoopbackAP is an in-process AccessPoint. Submit stands in for the form.
type LoopbackAP struct {
	ssid string
	url  string
	subs *wifi.Mailbox

	mu      sync.Mutex
	running bool
}

// NewLoopbackAP creates a loopback access point. An empty url uses
// DefaultURL.
func NewLoopbackAP(ssid, url string) *LoopbackAP {
	if url == "" {
		url = DefaultURL
	}
	return &LoopbackAP{ssid: ssid, url: url, subs: wifi.NewMailbox()}
}

// HotspotSSID builds the hotspot name from a prefix and the last two bytes
// of the device MAC address.
func HotspotSSID(prefix string, mac []byte) string {
	if len(mac) < 2 {
		return prefix
	}
	return fmt.Sprintf("%s-%02X%02X", prefix, mac[len(mac)-2], mac[len(mac)-1])
}

// Start marks the access point running.
func (a *LoopbackAP) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = true
	return nil
}

// Stop marks the access point stopped and discards pending submissions.
func (a *LoopbackAP) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	a.subs.Drain()
	return nil
}

// Running reports whether the access point is running.
func (a *LoopbackAP) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// SSID returns the hotspot name.
func (a *LoopbackAP) SSID() string { return a.ssid }

// WebServerURL returns the form address.
func (a *LoopbackAP) WebServerURL() string { return a.url }

// Submissions delivers submitted credentials.
func (a *LoopbackAP) Submissions() <-chan wifi.Credentials { return a.subs.C() }

// Submit simulates a form submission.
func (a *LoopbackAP) Submit(c wifi.Credentials) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return ErrNotRunning
	}
	a.subs.Put(c)
	return nil
}
