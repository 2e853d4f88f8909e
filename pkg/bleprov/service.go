package bleprov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buddypal/wifiprov/pkg/log"
	"github.com/buddypal/wifiprov/pkg/wifi"
)

// Service errors.
var (
	ErrInvalidConfig = errors.New("invalid transport configuration")
)

// TransportName is the name reported by Service.Name.
const TransportName = "ble"

// peerBacklog is the number of unread peer changes kept by Peers.
const peerBacklog = 4

// Config configures a Service.
type Config struct {
	// DeviceName is the advertised name. Defaults to DefaultDeviceName.
	DeviceName string

	// Advertising holds the advertising parameters.
	// Zero value uses DefaultAdvertisingParams.
	Advertising AdvertisingParams

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives write, notify and state events (optional).
	EventLogger log.Logger
}

// Service is the credential-exchange service. It is safe for concurrent
// use: Start, Stop and the Send methods run on the caller's goroutine while
// HandleEvent runs on the platform's.
type Service struct {
	platform Platform
	config   Config
	logger   *slog.Logger
	events   log.Logger
	creds    *wifi.Mailbox
	peers    chan bool

	// mu guards the whole session including the bring-up step.
	mu      sync.Mutex
	started bool
	session Session
	pending wifi.Credentials
}

// New creates a service bound to platform.
func New(platform Platform, cfg Config) (*Service, error) {
	if platform == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.DeviceName == "" {
		cfg.DeviceName = DefaultDeviceName
	}
	if cfg.Advertising == (AdvertisingParams{}) {
		cfg.Advertising = DefaultAdvertisingParams()
	}
	if cfg.Advertising.MinInterval > cfg.Advertising.MaxInterval {
		return nil, fmt.Errorf("%w: advertising interval min 0x%X > max 0x%X",
			ErrInvalidConfig, cfg.Advertising.MinInterval, cfg.Advertising.MaxInterval)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Service{
		platform: platform,
		config:   cfg,
		logger:   logger,
		events:   log.OrNoop(cfg.EventLogger),
		creds:    wifi.NewMailbox(),
		peers:    make(chan bool, peerBacklog),
	}
	platform.Bind(s.HandleEvent)
	return s, nil
}

// Name returns the transport name.
func (s *Service) Name() string {
	return TransportName
}

// DeviceName returns the advertised name.
func (s *Service) DeviceName() string {
	return s.config.DeviceName
}

// Start begins bring-up. It returns immediately; progress is driven by
// platform acknowledgements. Calling Start while started is a no-op.
func (s *Service) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.pending = wifi.Credentials{}
	s.creds.Drain()
	s.drainPeersLocked()
	s.session = Session{
		ID:         uuid.New().String(),
		DeviceName: s.config.DeviceName,
		State:      StateUnregistered,
		StartedAt:  time.Now(),
	}
	s.setStateLocked(StateRegistering, "start")
	name := s.session.DeviceName
	s.mu.Unlock()

	s.logger.Info("starting credential exchange service", "name", name)
	s.request("register", func() error { return s.platform.Register(name) })
	return nil
}

// Stop stops advertising and shuts the platform down. Calling Stop while
// stopped is a no-op.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.session.PeerConnected = false
	s.session.Conn = ConnIdle
	s.setStateLocked(StateUnregistered, "stop")
	s.creds.Drain()
	s.mu.Unlock()

	s.logger.Info("stopping credential exchange service")
	return errors.Join(s.platform.StopAdvertising(), s.platform.Shutdown())
}

// Started reports whether Start was called without a later Stop.
func (s *Service) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// State returns the current bring-up state.
func (s *Service) State() BringUpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State
}

// Session returns a copy of the current session.
func (s *Service) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// IsConnected reports whether a peer is attached.
func (s *Service) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.PeerConnected
}

// Credentials delivers complete credentials. An unconsumed value is
// replaced by a newer one.
func (s *Service) Credentials() <-chan wifi.Credentials {
	return s.creds.C()
}

// Peers delivers true when a peer attaches and false when it leaves.
// Changes are dropped while the backlog is full.
func (s *Service) Peers() <-chan bool {
	return s.peers
}

func (s *Service) drainPeersLocked() {
	for {
		select {
		case <-s.peers:
		default:
			return
		}
	}
}

// Hint returns the operator instructions shown on the display.
func (s *Service) Hint() string {
	return fmt.Sprintf("Bluetooth setup started\nDevice name: %s\nConnect with the phone app", s.config.DeviceName)
}

// SendStatus notifies "SUCCESS" or "FAILED" if a peer is attached.
func (s *Service) SendStatus(outcome wifi.Outcome) {
	payload := PayloadFailed
	if outcome.Succeeded() {
		payload = PayloadSuccess
	}
	s.notify(payload)
}

// SendDebug notifies "DEBUG: <msg>" if a peer is attached.
func (s *Service) SendDebug(msg string) {
	s.notify(PayloadDebugPrefix + msg)
}

func (s *Service) notify(payload string) {
	s.mu.Lock()
	conn := s.session.ConnID
	handle := s.session.Handle(RoleStatus)
	attached := s.started && s.session.PeerConnected && handle != 0
	sessionID := s.session.ID
	s.mu.Unlock()

	delivered := false
	if attached {
		if err := s.platform.Notify(conn, handle, []byte(payload)); err != nil {
			s.logger.Debug("notify failed", "error", err)
		} else {
			delivered = true
		}
	} else {
		s.logger.Debug("status dropped, no peer attached", "payload", payload)
	}

	s.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: log.DirectionOut,
		Layer:     log.LayerTransport,
		Category:  log.CategoryNotify,
		Transport: TransportName,
		Notify:    &log.NotifyEvent{Payload: payload, Delivered: delivered},
	})
}

// HandleEvent processes one platform event. Platforms call it through the
// function registered with Bind.
func (s *Service) HandleEvent(ev Event) {
	var next func() error
	var what string
	var peerChanged, peerConnected bool

	s.mu.Lock()
	switch e := ev.(type) {
	case Registered:
		what = "create service"
		next = s.onRegisteredLocked(e)
	case ServiceCreated:
		what = "add characteristic"
		next = s.onServiceCreatedLocked(e)
	case CharacteristicAdded:
		what = "add characteristic"
		next = s.onCharacteristicAddedLocked(e)
	case AdvertisingStarted:
		s.onAdvertisingStartedLocked(e)
	case AdvertisingStopped:
		s.onAdvertisingStoppedLocked()
	case PeerConnected:
		peerChanged = s.onPeerConnectedLocked(e)
		peerConnected = true
	case PeerDisconnected:
		peerChanged = s.started && s.session.PeerConnected
		what = "start advertising"
		next = s.onPeerDisconnectedLocked(e)
	case WriteRequest:
		s.mu.Unlock()
		s.onWrite(e)
		return
	default:
		s.logger.Warn("unhandled platform event", "event", fmt.Sprintf("%T", ev))
	}
	s.mu.Unlock()

	if peerChanged {
		s.publishPeer(peerConnected)
	}
	if next != nil {
		s.request(what, next)
	}
}

func (s *Service) publishPeer(connected bool) {
	select {
	case s.peers <- connected:
	default:
		s.logger.Debug("peer change dropped", "connected", connected)
	}
}

// request issues a platform request. A rejected request aborts bring-up.
func (s *Service) request(what string, fn func() error) {
	if err := fn(); err != nil {
		s.mu.Lock()
		s.abortLocked(what, err.Error())
		s.mu.Unlock()
	}
}

func (s *Service) onRegisteredLocked(e Registered) func() error {
	if !s.expectLocked(StateRegistering, "Registered") {
		return nil
	}
	if e.Status != StatusOK {
		s.abortLocked("register", fmt.Sprintf("status %d", e.Status))
		return nil
	}
	s.setStateLocked(StateServiceCreating, "registered")
	return func() error { return s.platform.CreateService(ServiceUUID) }
}

func (s *Service) onServiceCreatedLocked(e ServiceCreated) func() error {
	if !s.expectLocked(StateServiceCreating, "ServiceCreated") {
		return nil
	}
	if e.Status != StatusOK {
		s.abortLocked("create service", fmt.Sprintf("status %d", e.Status))
		return nil
	}
	s.session.ServiceHandle = e.Handle
	return s.addCharacteristicLocked(RoleSSID)
}

func (s *Service) addCharacteristicLocked(r Role) func() error {
	s.setStateLocked(addingState(r), "service created")
	service := s.session.ServiceHandle
	return func() error {
		return s.platform.AddCharacteristic(service, r.UUID(), r.Properties())
	}
}

func (s *Service) onCharacteristicAddedLocked(e CharacteristicAdded) func() error {
	role, ok := s.session.State.addingRole()
	if !ok || !s.started {
		s.logger.Debug("ignoring unexpected acknowledgement",
			"event", "CharacteristicAdded", "state", s.session.State.String())
		return nil
	}
	if e.Status != StatusOK {
		s.abortLocked("add "+role.String(), fmt.Sprintf("status %d", e.Status))
		return nil
	}
	s.session.Handles[role] = e.Handle
	s.logger.Debug("characteristic added", "role", role.String(), "handle", e.Handle)

	if role == RoleStatus {
		s.setStateLocked(StateServiceReady, "characteristics added")
		params := s.config.Advertising
		return func() error { return s.platform.StartAdvertising(params) }
	}

	next := role + 1
	s.setStateLocked(addingState(next), role.String()+" added")
	service := s.session.ServiceHandle
	return func() error {
		return s.platform.AddCharacteristic(service, next.UUID(), next.Properties())
	}
}

func (s *Service) onAdvertisingStartedLocked(e AdvertisingStarted) {
	if !s.expectLocked(StateServiceReady, "AdvertisingStarted") {
		return
	}
	if e.Status != StatusOK {
		s.abortLocked("start advertising", fmt.Sprintf("status %d", e.Status))
		return
	}
	if s.session.Conn == ConnPeerDisconnected {
		s.setConnLocked(ConnIdle, "advertising restarted")
	}
	s.setStateLocked(StateAdvertising, "advertising")
}

func (s *Service) onAdvertisingStoppedLocked() {
	if s.session.State != StateAdvertising {
		return
	}
	s.setStateLocked(StateServiceReady, "advertising stopped")
}

func (s *Service) onPeerConnectedLocked(e PeerConnected) bool {
	if !s.started {
		return false
	}
	s.session.ConnID = e.ConnID
	s.session.PeerConnected = true
	s.setConnLocked(ConnPeerConnected, fmt.Sprintf("conn %d", e.ConnID))
	return true
}

func (s *Service) onPeerDisconnectedLocked(e PeerDisconnected) func() error {
	if !s.started || !s.session.PeerConnected {
		return nil
	}
	s.session.PeerConnected = false
	s.setConnLocked(ConnPeerDisconnected, fmt.Sprintf("conn %d", e.ConnID))

	if !s.session.State.Ready() {
		return nil
	}
	// Advertising restarts from ServiceReady so its ack is accepted.
	s.setStateLocked(StateServiceReady, "peer disconnected")
	params := s.config.Advertising
	return func() error { return s.platform.StartAdvertising(params) }
}

func (s *Service) onWrite(e WriteRequest) {
	var deliver *wifi.Credentials

	s.mu.Lock()
	role, known := s.session.RoleOf(e.Handle)
	if !s.started || !s.session.State.Ready() {
		known = false
	}
	if known {
		switch role {
		case RoleSSID:
			s.pending.SSID = string(e.Value)
		case RolePassword:
			s.pending.Password = string(e.Value)
			if s.pending.Complete() {
				c := s.pending
				deliver = &c
			}
		case RoleStatus:
			known = false
		}
	}
	sessionID := s.session.ID
	s.mu.Unlock()

	roleName := "unknown"
	if known {
		roleName = role.String()
	}
	write := &log.WriteEvent{
		Role:         roleName,
		Handle:       e.Handle,
		Size:         len(e.Value),
		NeedResponse: e.NeedResponse,
	}
	if known && role == RoleSSID {
		write.Value = string(e.Value)
	}
	s.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: log.DirectionIn,
		Layer:     log.LayerTransport,
		Category:  log.CategoryWrite,
		Transport: TransportName,
		PeerID:    fmt.Sprintf("%d", e.ConnID),
		Write:     write,
	})

	if !known {
		s.logger.Debug("ignoring write", "handle", e.Handle, "size", len(e.Value))
	}

	if deliver != nil {
		s.logger.Info("credentials received", "ssid", deliver.SSID)
		if s.creds.Put(*deliver) {
			s.logger.Debug("replaced unconsumed credentials")
		}
	}

	if e.NeedResponse {
		if err := s.platform.Respond(e.ConnID, e.TransID); err != nil {
			s.logger.Warn("write response failed", "handle", e.Handle, "error", err)
		}
	}
}

// expectLocked reports whether the service is started and in want.
func (s *Service) expectLocked(want BringUpState, event string) bool {
	if s.started && s.session.State == want {
		return true
	}
	s.logger.Debug("ignoring unexpected acknowledgement",
		"event", event, "state", s.session.State.String())
	return false
}

func (s *Service) abortLocked(step, reason string) {
	s.logger.Error("bring-up failed", "step", step, "reason", reason)
	s.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.session.ID,
		Direction: log.DirectionLocal,
		Layer:     log.LayerTransport,
		Category:  log.CategoryError,
		Transport: TransportName,
		Error:     &log.ErrorEventData{Layer: log.LayerTransport, Message: reason, Context: step},
	})
	s.setStateLocked(StateUnregistered, step+" failed")
}

func (s *Service) setStateLocked(state BringUpState, reason string) {
	old := s.session.State
	s.session.State = state
	s.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.session.ID,
		Direction: log.DirectionLocal,
		Layer:     log.LayerTransport,
		Category:  log.CategoryState,
		Transport: TransportName,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityBringUp,
			OldState: old.String(),
			NewState: state.String(),
			Reason:   reason,
		},
	})
}

func (s *Service) setConnLocked(conn ConnState, reason string) {
	old := s.session.Conn
	s.session.Conn = conn
	s.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.session.ID,
		Direction: log.DirectionLocal,
		Layer:     log.LayerTransport,
		Category:  log.CategoryState,
		Transport: TransportName,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityPeer,
			OldState: old.String(),
			NewState: conn.String(),
			Reason:   reason,
		},
	})
}
