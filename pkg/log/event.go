package log

import "time"

// Event represents a provisioning event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the transport session or attempt (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates data flow relative to the device.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Transport names the provisioning strategy ("ble", "ap").
	Transport string `cbor:"6,keyasint,omitempty"`

	// PeerID identifies the attached operator device, if any.
	PeerID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Write       *WriteEvent       `cbor:"10,keyasint,omitempty"`
	Notify      *NotifyEvent      `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Attempt     *AttemptEvent     `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the operator.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the operator.
	DirectionOut Direction = 1
	// DirectionLocal indicates an internal event.
	DirectionLocal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerTransport is the credential exchange transport.
	LayerTransport Layer = 0
	// LayerSupervisor is the connection supervisor.
	LayerSupervisor Layer = 1
	// LayerOrchestrator is the provisioning orchestrator.
	LayerOrchestrator Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerSupervisor:
		return "SUPERVISOR"
	case LayerOrchestrator:
		return "ORCHESTRATOR"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryWrite indicates a characteristic write or form submission.
	CategoryWrite Category = 0
	// CategoryNotify indicates an outgoing status notification.
	CategoryNotify Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryAttempt indicates a connection attempt result.
	CategoryAttempt Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryWrite:
		return "WRITE"
	case CategoryNotify:
		return "NOTIFY"
	case CategoryState:
		return "STATE"
	case CategoryAttempt:
		return "ATTEMPT"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// WriteEvent captures one incoming write.
type WriteEvent struct {
	// Role is the characteristic role ("ssid", "password", "status", "unknown").
	Role string `cbor:"1,keyasint"`

	// Handle is the characteristic handle the write addressed.
	Handle uint16 `cbor:"2,keyasint"`

	// Size is the payload length in bytes.
	Size int `cbor:"3,keyasint"`

	// Value is the payload for non-secret roles. Never set for passwords.
	Value string `cbor:"4,keyasint,omitempty"`

	// NeedResponse indicates the peer asked for an acknowledgement.
	NeedResponse bool `cbor:"5,keyasint,omitempty"`
}

// NotifyEvent captures an outgoing status notification.
type NotifyEvent struct {
	// Payload is the notification text ("SUCCESS", "FAILED", "DEBUG: ...").
	Payload string `cbor:"1,keyasint"`

	// Delivered is false when the notification was dropped (no peer attached).
	Delivered bool `cbor:"2,keyasint"`
}

// StateChangeEvent captures lifecycle changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityBringUp indicates a transport bring-up state change.
	StateEntityBringUp StateEntity = 0
	// StateEntityPeer indicates a peer connection state change.
	StateEntityPeer StateEntity = 1
	// StateEntityDevice indicates a device provisioning state change.
	StateEntityDevice StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityBringUp:
		return "BRINGUP"
	case StateEntityPeer:
		return "PEER"
	case StateEntityDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// AttemptEvent captures the result of one connection attempt.
type AttemptEvent struct {
	// SSID is the network the attempt targeted.
	SSID string `cbor:"1,keyasint"`

	// Outcome is the outcome kind name.
	Outcome string `cbor:"2,keyasint"`

	// Elapsed is how long the attempt took. Stored as nanoseconds.
	Elapsed time.Duration `cbor:"3,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
