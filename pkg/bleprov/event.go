package bleprov

// Event is a notification from the platform. The set of events is closed;
// Service.HandleEvent matches it with a single type switch.
type Event interface {
	platformEvent()
}

// Registered acknowledges Register.
type Registered struct {
	Status Status
}

// ServiceCreated acknowledges CreateService.
type ServiceCreated struct {
	Handle uint16
	Status Status
}

// CharacteristicAdded acknowledges AddCharacteristic. It does not say which
// characteristic was added; acknowledgements arrive in request order.
type CharacteristicAdded struct {
	Handle uint16
	Status Status
}

// AdvertisingStarted acknowledges StartAdvertising.
type AdvertisingStarted struct {
	Status Status
}

// AdvertisingStopped reports that advertising ended, either on request or
// because a peer connected.
type AdvertisingStopped struct{}

// PeerConnected reports an attached peer.
type PeerConnected struct {
	ConnID uint16
}

// PeerDisconnected reports that the peer went away.
type PeerDisconnected struct {
	ConnID uint16
}

// WriteRequest carries a characteristic write from the peer.
type WriteRequest struct {
	ConnID       uint16
	Handle       uint16
	Value        []byte
	NeedResponse bool
	TransID      uint32
}

func (Registered) platformEvent()          {}
func (ServiceCreated) platformEvent()      {}
func (CharacteristicAdded) platformEvent() {}
func (AdvertisingStarted) platformEvent()  {}
func (AdvertisingStopped) platformEvent()  {}
func (PeerConnected) platformEvent()       {}
func (PeerDisconnected) platformEvent()    {}
func (WriteRequest) platformEvent()        {}
