package bleprov

// BringUpState is the position in the service bring-up sequence.
type BringUpState uint8

const (
	// StateUnregistered - nothing requested yet, or bring-up aborted.
	StateUnregistered BringUpState = iota

	// StateRegistering - waiting for the Registered acknowledgement.
	StateRegistering

	// StateServiceCreating - waiting for ServiceCreated.
	StateServiceCreating

	// StateAddingSSID - waiting for the ssid characteristic.
	StateAddingSSID

	// StateAddingPassword - waiting for the password characteristic.
	StateAddingPassword

	// StateAddingStatus - waiting for the status characteristic.
	StateAddingStatus

	// StateServiceReady - all characteristics exist; writes are accepted.
	StateServiceReady

	// StateAdvertising - advertising acknowledged.
	StateAdvertising
)

// String returns the state name.
func (s BringUpState) String() string {
	switch s {
	case StateUnregistered:
		return "UNREGISTERED"
	case StateRegistering:
		return "REGISTERING"
	case StateServiceCreating:
		return "SERVICE_CREATING"
	case StateAddingSSID:
		return "ADDING_SSID"
	case StateAddingPassword:
		return "ADDING_PASSWORD"
	case StateAddingStatus:
		return "ADDING_STATUS"
	case StateServiceReady:
		return "SERVICE_READY"
	case StateAdvertising:
		return "ADVERTISING"
	default:
		return "UNKNOWN"
	}
}

// Ready reports whether the service accepts writes.
func (s BringUpState) Ready() bool {
	return s >= StateServiceReady
}

// addingRole returns the role whose acknowledgement the state waits for.
func (s BringUpState) addingRole() (Role, bool) {
	switch s {
	case StateAddingSSID:
		return RoleSSID, true
	case StateAddingPassword:
		return RolePassword, true
	case StateAddingStatus:
		return RoleStatus, true
	default:
		return 0, false
	}
}

// addingState returns the step that waits for role's acknowledgement.
func addingState(r Role) BringUpState {
	switch r {
	case RoleSSID:
		return StateAddingSSID
	case RolePassword:
		return StateAddingPassword
	default:
		return StateAddingStatus
	}
}

// ConnState is the peer connection sub-state.
type ConnState uint8

const (
	// ConnIdle - no peer attached.
	ConnIdle ConnState = iota
	// ConnPeerConnected - a peer is attached.
	ConnPeerConnected
	// ConnPeerDisconnected - the peer left; advertising is being restarted.
	ConnPeerDisconnected
)

// String returns the connection state name.
func (c ConnState) String() string {
	switch c {
	case ConnIdle:
		return "IDLE"
	case ConnPeerConnected:
		return "PEER_CONNECTED"
	case ConnPeerDisconnected:
		return "PEER_DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}
