//go:build linux

package bleprov

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

type tinygoCharacteristic struct {
	handle uint16
	uuid   UUID16
	props  Property
}

// TinyGoPlatform binds Platform to the host Bluetooth stack (BlueZ on
// Linux) through tinygo.org/x/bluetooth.
//
// The stack registers a service in one call, so CreateService and
// AddCharacteristic only allocate handles and acknowledge in request order;
// the service is committed when advertising first starts. BlueZ cannot
// remove a registered service, so later cycles reuse it and map the new
// handles onto the committed characteristics.
//
// BlueZ does not report connections to a peripheral application. A peer is
// considered attached from its first write, and write responses are sent by
// the stack itself.
type TinyGoPlatform struct {
	adapter *bluetooth.Adapter
	logger  *slog.Logger
	d       *dispatcher

	mu         sync.Mutex
	enabled    bool
	committed  bool
	name       string
	nextHandle uint16
	service    uint16
	chars      []tinygoCharacteristic
	byUUID     map[UUID16]uint16
	status     bluetooth.Characteristic
	adv        *bluetooth.Advertisement
	peer       bluetooth.Connection
	hasPeer    bool
	nextTrans  uint32
}

// NewTinyGoPlatform creates a platform on the default adapter.
func NewTinyGoPlatform(logger *slog.Logger) *TinyGoPlatform {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TinyGoPlatform{
		adapter:    bluetooth.DefaultAdapter,
		logger:     logger,
		d:          newDispatcher(),
		nextHandle: 0x0028,
		byUUID:     make(map[UUID16]uint16),
	}
}

// Bind sets the event dispatch function.
func (p *TinyGoPlatform) Bind(dispatch func(Event)) {
	p.d.bind(dispatch)
}

// Register enables the adapter.
func (p *TinyGoPlatform) Register(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		if err := p.adapter.Enable(); err != nil {
			return fmt.Errorf("enable adapter: %w", err)
		}
		p.enabled = true
	}
	p.name = name
	p.chars = nil
	p.byUUID = make(map[UUID16]uint16)
	p.d.post(Registered{Status: StatusOK})
	return nil
}

// CreateService allocates the service handle.
func (p *TinyGoPlatform) CreateService(uuid UUID16) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return ErrNotRegistered
	}
	if uuid != ServiceUUID {
		return fmt.Errorf("unsupported service %s", uuid)
	}
	p.service = p.nextHandle
	p.nextHandle++
	p.d.post(ServiceCreated{Handle: p.service, Status: StatusOK})
	return nil
}

// AddCharacteristic allocates a characteristic handle.
func (p *TinyGoPlatform) AddCharacteristic(service uint16, uuid UUID16, props Property) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return ErrNotRegistered
	}
	if service != p.service {
		return fmt.Errorf("%w: service 0x%04X", ErrUnknownHandle, service)
	}
	h := p.nextHandle
	p.nextHandle++
	p.chars = append(p.chars, tinygoCharacteristic{handle: h, uuid: uuid, props: props})
	p.byUUID[uuid] = h
	p.d.post(CharacteristicAdded{Handle: h, Status: StatusOK})
	return nil
}

// StartAdvertising commits the service on first use, then advertises.
func (p *TinyGoPlatform) StartAdvertising(params AdvertisingParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return ErrNotRegistered
	}
	if !p.committed {
		if err := p.commitLocked(); err != nil {
			return err
		}
	}
	if p.adv == nil {
		p.adv = p.adapter.DefaultAdvertisement()
	}
	err := p.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    p.name,
		ServiceUUIDs: []bluetooth.UUID{bluetooth.New16BitUUID(uint16(ServiceUUID))},
		Interval:     bluetooth.NewDuration(intervalDuration(params.MinInterval)),
	})
	if err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}
	if err := p.adv.Start(); err != nil {
		p.logger.Warn("advertising start failed", "error", err)
		p.d.post(AdvertisingStarted{Status: StatusFailure})
		return nil
	}
	p.d.post(AdvertisingStarted{Status: StatusOK})
	return nil
}

func (p *TinyGoPlatform) commitLocked() error {
	configs := make([]bluetooth.CharacteristicConfig, 0, len(p.chars))
	for _, c := range p.chars {
		cfg := bluetooth.CharacteristicConfig{
			UUID:  bluetooth.New16BitUUID(uint16(c.uuid)),
			Flags: characteristicFlags(c.props),
		}
		uuid := c.uuid
		if c.props.Has(PropWrite) {
			cfg.WriteEvent = func(client bluetooth.Connection, _ int, value []byte) {
				p.onWrite(client, uuid, value)
			}
		}
		if uuid == StatusCharUUID {
			cfg.Handle = &p.status
		}
		configs = append(configs, cfg)
	}

	err := p.adapter.AddService(&bluetooth.Service{
		UUID:            bluetooth.New16BitUUID(uint16(ServiceUUID)),
		Characteristics: configs,
	})
	if err != nil {
		return fmt.Errorf("add service: %w", err)
	}
	p.committed = true
	return nil
}

func (p *TinyGoPlatform) onWrite(client bluetooth.Connection, uuid UUID16, value []byte) {
	p.mu.Lock()
	handle := p.byUUID[uuid]
	newPeer := !p.hasPeer || p.peer != client
	p.peer = client
	p.hasPeer = true
	p.nextTrans++
	trans := p.nextTrans
	p.mu.Unlock()

	if newPeer {
		p.d.post(PeerConnected{ConnID: uint16(client)})
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	p.d.post(WriteRequest{
		ConnID:  uint16(client),
		Handle:  handle,
		Value:   buf,
		TransID: trans,
	})
}

// StopAdvertising stops the advertisement.
func (p *TinyGoPlatform) StopAdvertising() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.adv != nil {
		if err := p.adv.Stop(); err != nil {
			return fmt.Errorf("stop advertisement: %w", err)
		}
	}
	p.d.post(AdvertisingStopped{})
	return nil
}

// Respond does nothing; BlueZ answers write requests itself.
func (p *TinyGoPlatform) Respond(uint16, uint32) error {
	return nil
}

// Notify writes value to the status characteristic, which BlueZ turns into
// a notification to subscribed peers.
func (p *TinyGoPlatform) Notify(connID uint16, handle uint16, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasPeer || uint16(p.peer) != connID {
		return ErrNoPeer
	}
	if handle != p.byUUID[StatusCharUUID] {
		return ErrUnknownHandle
	}
	_, err := p.status.Write(value)
	return err
}

// Shutdown forgets the peer and the handles of the current cycle.
func (p *TinyGoPlatform) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hasPeer = false
	p.byUUID = make(map[UUID16]uint16)
	return nil
}

// Close stops event dispatch.
func (p *TinyGoPlatform) Close() {
	p.d.close()
}

func characteristicFlags(props Property) bluetooth.CharacteristicPermissions {
	var flags bluetooth.CharacteristicPermissions
	if props.Has(PropRead) {
		flags |= bluetooth.CharacteristicReadPermission
	}
	if props.Has(PropWrite) {
		flags |= bluetooth.CharacteristicWritePermission
	}
	if props.Has(PropNotify) {
		flags |= bluetooth.CharacteristicNotifyPermission
	}
	return flags
}

// intervalDuration converts advertising interval units of 0.625 ms.
func intervalDuration(units uint16) time.Duration {
	return time.Duration(units) * 625 * time.Microsecond
}

// Compile-time interface satisfaction check.
var _ Platform = (*TinyGoPlatform)(nil)
