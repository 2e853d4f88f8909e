package bleprov

import (
	"fmt"
	"sync"
)

// RequestKind identifies an acknowledged platform request.
type RequestKind uint8

const (
	RequestRegister RequestKind = iota
	RequestCreateService
	RequestAddCharacteristic
	RequestStartAdvertising
)

// Notification is a notification delivered by SimPlatform.
type Notification struct {
	ConnID uint16
	Handle uint16
	Value  string
}

// Response is a write acknowledgement sent through SimPlatform.
type Response struct {
	ConnID  uint16
	TransID uint32
}

type simCharacteristic struct {
	uuid  UUID16
	props Property
}

// SimPlatform is an in-process Platform. It acknowledges requests from its
// own goroutine and lets a test or console act as the peer. Handles come
// from a counter that is never reset, so no handle repeats.
type SimPlatform struct {
	d *dispatcher

	mu          sync.Mutex
	nextHandle  uint16
	nextConn    uint16
	nextTrans   uint32
	registered  bool
	name        string
	service     uint16
	chars       map[uint16]simCharacteristic
	advertising bool
	advParams   AdvertisingParams
	peer        uint16
	hasPeer     bool
	faults      map[RequestKind]bool

	notifications []Notification
	responses     []Response
}

// NewSimPlatform creates a simulated platform.
func NewSimPlatform() *SimPlatform {
	return &SimPlatform{
		d:          newDispatcher(),
		nextHandle: 0x0028,
		chars:      make(map[uint16]simCharacteristic),
		faults:     make(map[RequestKind]bool),
	}
}

// Bind sets the event dispatch function.
func (p *SimPlatform) Bind(dispatch func(Event)) {
	p.d.bind(dispatch)
}

// Close stops the dispatch goroutine. The platform is unusable afterwards.
func (p *SimPlatform) Close() {
	p.d.close()
}

// FailNext makes the next acknowledgement of kind carry StatusFailure.
func (p *SimPlatform) FailNext(kind RequestKind) {
	p.mu.Lock()
	p.faults[kind] = true
	p.mu.Unlock()
}

func (p *SimPlatform) status(kind RequestKind) Status {
	if p.faults[kind] {
		delete(p.faults, kind)
		return StatusFailure
	}
	return StatusOK
}

func (p *SimPlatform) allocHandle() uint16 {
	h := p.nextHandle
	p.nextHandle++
	return h
}

// Register acknowledges with Registered.
func (p *SimPlatform) Register(name string) error {
	p.mu.Lock()
	st := p.status(RequestRegister)
	if st == StatusOK {
		p.registered = true
		p.name = name
	}
	p.mu.Unlock()

	p.d.post(Registered{Status: st})
	return nil
}

// CreateService acknowledges with ServiceCreated.
func (p *SimPlatform) CreateService(uuid UUID16) error {
	p.mu.Lock()
	if !p.registered {
		p.mu.Unlock()
		return ErrNotRegistered
	}
	st := p.status(RequestCreateService)
	var handle uint16
	if st == StatusOK {
		handle = p.allocHandle()
		p.service = handle
	}
	p.mu.Unlock()

	p.d.post(ServiceCreated{Handle: handle, Status: st})
	return nil
}

// AddCharacteristic acknowledges with CharacteristicAdded.
func (p *SimPlatform) AddCharacteristic(service uint16, uuid UUID16, props Property) error {
	p.mu.Lock()
	if !p.registered {
		p.mu.Unlock()
		return ErrNotRegistered
	}
	if service != p.service {
		p.mu.Unlock()
		return fmt.Errorf("%w: service 0x%04X", ErrUnknownHandle, service)
	}
	st := p.status(RequestAddCharacteristic)
	var handle uint16
	if st == StatusOK {
		handle = p.allocHandle()
		p.chars[handle] = simCharacteristic{uuid: uuid, props: props}
	}
	p.mu.Unlock()

	p.d.post(CharacteristicAdded{Handle: handle, Status: st})
	return nil
}

// StartAdvertising acknowledges with AdvertisingStarted.
func (p *SimPlatform) StartAdvertising(params AdvertisingParams) error {
	p.mu.Lock()
	if !p.registered {
		p.mu.Unlock()
		return ErrNotRegistered
	}
	st := p.status(RequestStartAdvertising)
	if st == StatusOK {
		p.advertising = true
		p.advParams = params
	}
	p.mu.Unlock()

	p.d.post(AdvertisingStarted{Status: st})
	return nil
}

// StopAdvertising acknowledges with AdvertisingStopped.
func (p *SimPlatform) StopAdvertising() error {
	p.mu.Lock()
	p.advertising = false
	p.mu.Unlock()

	p.d.post(AdvertisingStopped{})
	return nil
}

// Respond records the acknowledgement.
func (p *SimPlatform) Respond(connID uint16, transID uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, Response{ConnID: connID, TransID: transID})
	return nil
}

// Notify records the notification if the peer is attached.
func (p *SimPlatform) Notify(connID uint16, handle uint16, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasPeer || p.peer != connID {
		return ErrNoPeer
	}
	if _, ok := p.chars[handle]; !ok {
		return ErrUnknownHandle
	}
	p.notifications = append(p.notifications, Notification{ConnID: connID, Handle: handle, Value: string(value)})
	return nil
}

// Shutdown drops the service and any attached peer without events.
func (p *SimPlatform) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = false
	p.advertising = false
	p.hasPeer = false
	p.service = 0
	p.chars = make(map[uint16]simCharacteristic)
	return nil
}

// Connect attaches a peer. Advertising stops, as it does on a real
// peripheral.
func (p *SimPlatform) Connect() (uint16, error) {
	p.mu.Lock()
	if !p.registered {
		p.mu.Unlock()
		return 0, ErrNotRegistered
	}
	if p.hasPeer {
		p.mu.Unlock()
		return 0, ErrPeerAttached
	}
	p.nextConn++
	p.peer = p.nextConn
	p.hasPeer = true
	wasAdvertising := p.advertising
	p.advertising = false
	conn := p.peer
	p.mu.Unlock()

	p.d.post(PeerConnected{ConnID: conn})
	if wasAdvertising {
		p.d.post(AdvertisingStopped{})
	}
	return conn, nil
}

// Disconnect detaches the peer.
func (p *SimPlatform) Disconnect() error {
	p.mu.Lock()
	if !p.hasPeer {
		p.mu.Unlock()
		return ErrNoPeer
	}
	conn := p.peer
	p.hasPeer = false
	p.mu.Unlock()

	p.d.post(PeerDisconnected{ConnID: conn})
	return nil
}

// Write writes value to the characteristic with uuid as the attached peer.
// It returns the transaction ID used.
func (p *SimPlatform) Write(uuid UUID16, value []byte, needResponse bool) (uint32, error) {
	p.mu.Lock()
	var handle uint16
	for h, c := range p.chars {
		if c.uuid == uuid {
			handle = h
			break
		}
	}
	p.mu.Unlock()

	if handle == 0 {
		return 0, fmt.Errorf("%w: characteristic %s", ErrUnknownHandle, uuid)
	}
	return p.WriteHandle(handle, value, needResponse)
}

// WriteHandle writes value to handle as the attached peer. The handle is
// not validated, so writes to unknown handles can be simulated.
func (p *SimPlatform) WriteHandle(handle uint16, value []byte, needResponse bool) (uint32, error) {
	p.mu.Lock()
	if !p.hasPeer {
		p.mu.Unlock()
		return 0, ErrNoPeer
	}
	p.nextTrans++
	trans := p.nextTrans
	conn := p.peer
	p.mu.Unlock()

	buf := make([]byte, len(value))
	copy(buf, value)
	p.d.post(WriteRequest{
		ConnID:       conn,
		Handle:       handle,
		Value:        buf,
		NeedResponse: needResponse,
		TransID:      trans,
	})
	return trans, nil
}

// Advertising reports whether advertising is active.
func (p *SimPlatform) Advertising() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advertising
}

// AdvertisingParams returns the parameters of the last successful
// StartAdvertising.
func (p *SimPlatform) AdvertisingParams() AdvertisingParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advParams
}

// Name returns the registered name.
func (p *SimPlatform) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// PeerAttached reports whether a peer is attached.
func (p *SimPlatform) PeerAttached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasPeer
}

// Notifications returns a copy of the delivered notifications.
func (p *SimPlatform) Notifications() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Notification, len(p.notifications))
	copy(out, p.notifications)
	return out
}

// Responses returns a copy of the write acknowledgements.
func (p *SimPlatform) Responses() []Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Response, len(p.responses))
	copy(out, p.responses)
	return out
}

// Compile-time interface satisfaction check.
var _ Platform = (*SimPlatform)(nil)
