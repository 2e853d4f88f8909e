package provisioning

import (
	"context"

	"github.com/buddypal/wifiprov/pkg/bleprov"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

// NoopTransport is a disabled transport: it starts and stops successfully,
// never delivers credentials and drops every status.
type NoopTransport struct {
	// Label is returned by Name. Defaults to "noop".
	Label string
}

// Name returns the label.
func (t NoopTransport) Name() string {
	if t.Label == "" {
		return "noop"
	}
	return t.Label
}

// Start does nothing.
func (NoopTransport) Start(context.Context) error { return nil }

// Stop does nothing.
func (NoopTransport) Stop() error { return nil }

// Credentials returns nil.
func (NoopTransport) Credentials() <-chan wifi.Credentials { return nil }

// SendStatus does nothing.
func (NoopTransport) SendStatus(wifi.Outcome) {}

// SendDebug does nothing.
func (NoopTransport) SendDebug(string) {}

// Hint returns an empty hint.
func (NoopTransport) Hint() string { return "" }

// Compile-time interface satisfaction checks.
var (
	_ Transport = NoopTransport{}
	_ Transport = (*bleprov.Service)(nil)
	_ Transport = bleprov.Disabled{}

	_ PeerReporter = (*bleprov.Service)(nil)
)
