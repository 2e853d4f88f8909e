package bleprov

import "time"

// Session is one bring-up of the service. A new Session is created on every
// Start; handles from an earlier session are never valid in a later one.
type Session struct {
	ID         string
	DeviceName string
	State      BringUpState
	StartedAt  time.Time

	ServiceHandle uint16

	// Handles holds the characteristic handles, indexed by Role.
	Handles [roleCount]uint16

	// ConnID is only meaningful while PeerConnected is true.
	ConnID        uint16
	PeerConnected bool
	Conn          ConnState
}

// Handle returns the handle assigned to r, or 0 if not yet assigned.
func (s Session) Handle(r Role) uint16 {
	if r >= roleCount {
		return 0
	}
	return s.Handles[r]
}

// RoleOf returns the role owning handle.
func (s Session) RoleOf(handle uint16) (Role, bool) {
	if handle == 0 {
		return 0, false
	}
	for r := RoleSSID; r < roleCount; r++ {
		if s.Handles[r] == handle {
			return r, true
		}
	}
	return 0, false
}
