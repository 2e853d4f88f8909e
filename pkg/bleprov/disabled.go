package bleprov

import (
	"context"

	"github.com/buddypal/wifiprov/pkg/wifi"
)

// Disabled is the credential-exchange transport of a device built without
// Bluetooth. Every operation is a no-op and no credentials are delivered.
type Disabled struct{}

// Name returns the transport name.
func (Disabled) Name() string { return TransportName }

// Start does nothing.
func (Disabled) Start(context.Context) error { return nil }

// Stop does nothing.
func (Disabled) Stop() error { return nil }

// Credentials returns a channel that never delivers.
func (Disabled) Credentials() <-chan wifi.Credentials { return nil }

// SendStatus does nothing.
func (Disabled) SendStatus(wifi.Outcome) {}

// SendDebug does nothing.
func (Disabled) SendDebug(string) {}

// Hint returns an empty hint.
func (Disabled) Hint() string { return "" }
