package bleprov

import "errors"

// Platform errors.
var (
	ErrNotRegistered = errors.New("platform not registered")
	ErrNoPeer        = errors.New("no peer attached")
	ErrPeerAttached  = errors.New("peer already attached")
	ErrUnknownHandle = errors.New("unknown attribute handle")
	ErrClosed        = errors.New("platform closed")
)

// Platform is the radio stack. Requests return immediately; a returned
// error means the request was rejected outright and no acknowledgement
// will follow. Acknowledgements and unsolicited events are delivered to the
// function passed to Bind, from a goroutine owned by the platform, in the
// order the platform produced them.
type Platform interface {
	// Bind sets the event dispatch function. It is called once, before
	// any request.
	Bind(dispatch func(Event))

	// Register registers the application under name. Ack: Registered.
	Register(name string) error

	// CreateService creates the primary service. Ack: ServiceCreated.
	CreateService(uuid UUID16) error

	// AddCharacteristic adds a characteristic to service.
	// Ack: CharacteristicAdded.
	AddCharacteristic(service uint16, uuid UUID16, props Property) error

	// StartAdvertising starts connectable advertising. Ack: AdvertisingStarted.
	StartAdvertising(params AdvertisingParams) error

	// StopAdvertising stops advertising. Ack: AdvertisingStopped.
	StopAdvertising() error

	// Respond acknowledges a write that asked for a response.
	Respond(connID uint16, transID uint32) error

	// Notify sends value on the characteristic handle to the peer.
	Notify(connID uint16, handle uint16, value []byte) error

	// Shutdown tears down the service and releases the radio.
	Shutdown() error
}
