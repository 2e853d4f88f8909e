package bleprov

import "fmt"

// UUID16 is a 16-bit attribute identifier.
type UUID16 uint16

// Wire identifiers.
const (
	ServiceUUID      UUID16 = 0x1234
	SSIDCharUUID     UUID16 = 0x1235
	PasswordCharUUID UUID16 = 0x1236
	StatusCharUUID   UUID16 = 0x1237
)

// String returns the identifier as 0xNNNN.
func (u UUID16) String() string {
	return fmt.Sprintf("0x%04X", uint16(u))
}

// DefaultDeviceName is advertised when no name is configured.
const DefaultDeviceName = "BuddyPal"

// Status notification payloads.
const (
	PayloadSuccess     = "SUCCESS"
	PayloadFailed      = "FAILED"
	PayloadDebugPrefix = "DEBUG: "
)

// Role identifies a characteristic by purpose.
type Role uint8

const (
	// RoleSSID receives the network name.
	RoleSSID Role = iota
	// RolePassword receives the network password.
	RolePassword
	// RoleStatus carries status notifications.
	RoleStatus

	roleCount
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleSSID:
		return "ssid"
	case RolePassword:
		return "password"
	case RoleStatus:
		return "status"
	default:
		return "unknown"
	}
}

// UUID returns the wire identifier of the role's characteristic.
func (r Role) UUID() UUID16 {
	switch r {
	case RoleSSID:
		return SSIDCharUUID
	case RolePassword:
		return PasswordCharUUID
	case RoleStatus:
		return StatusCharUUID
	default:
		return 0
	}
}

// Properties returns the characteristic properties of the role.
func (Role) Properties() Property {
	return PropRead | PropWrite | PropNotify
}

// Property is a characteristic property bitmask.
type Property uint8

// Characteristic properties.
const (
	PropRead Property = 1 << iota
	PropWrite
	PropNotify
)

// Has reports whether all bits of q are set.
func (p Property) Has(q Property) bool {
	return p&q == q
}

// Status is the result code carried by acknowledgement events.
type Status uint8

const (
	// StatusOK means the request succeeded.
	StatusOK Status = 0
	// StatusFailure means the platform rejected the request.
	StatusFailure Status = 1
)

// Channel map bits for advertising.
const (
	Channel37   uint8 = 0x01
	Channel38   uint8 = 0x02
	Channel39   uint8 = 0x04
	ChannelsAll       = Channel37 | Channel38 | Channel39
)

// AdvertisingParams configures connectable advertising. Intervals are in
// units of 0.625 ms.
type AdvertisingParams struct {
	MinInterval uint16
	MaxInterval uint16
	ChannelMap  uint8

	// Open allows any peer to scan and connect.
	Open bool
}

// DefaultAdvertisingParams returns 20-40 ms intervals on all channels,
// scannable and connectable by anyone.
func DefaultAdvertisingParams() AdvertisingParams {
	return AdvertisingParams{
		MinInterval: 0x20,
		MaxInterval: 0x40,
		ChannelMap:  ChannelsAll,
		Open:        true,
	}
}
