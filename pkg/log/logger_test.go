package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type recordingLogger struct {
	events  []Event
	syncErr error
	synced  int
}

func (r *recordingLogger) Log(e Event) { r.events = append(r.events, e) }

func (r *recordingLogger) Sync() error {
	r.synced++
	return r.syncErr
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != Logger(r) {
		t.Error("OrNoop should return non-nil logger unchanged")
	}
	NoopLogger{}.Log(Event{})
}

func TestMultiLoggerFansOutAndSkipsNil(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{SessionID: "x"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("events: a=%d b=%d, want 1 each", len(a.events), len(b.events))
	}
}

func TestMultiLoggerSyncReturnsFirstError(t *testing.T) {
	want := errors.New("disk gone")
	a := &recordingLogger{syncErr: want}
	b := &recordingLogger{}
	m := NewMultiLogger(a, NoopLogger{}, b)

	if err := m.Sync(); !errors.Is(err, want) {
		t.Errorf("Sync: got %v, want %v", err, want)
	}
	if a.synced != 1 || b.synced != 1 {
		t.Errorf("synced: a=%d b=%d, want 1 each", a.synced, b.synced)
	}
}

func TestSlogAdapterLogsNotify(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Timestamp: time.Now(),
		SessionID: "sess-9",
		Direction: DirectionOut,
		Layer:     LayerTransport,
		Category:  CategoryNotify,
		Transport: "ble",
		Notify:    &NotifyEvent{Payload: "FAILED", Delivered: false},
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["session_id"] != "sess-9" {
		t.Errorf("session_id: got %v", entry["session_id"])
	}
	if entry["payload"] != "FAILED" {
		t.Errorf("payload: got %v", entry["payload"])
	}
	if entry["delivered"] != false {
		t.Errorf("delivered: got %v", entry["delivered"])
	}
	if entry["transport"] != "ble" {
		t.Errorf("transport: got %v", entry["transport"])
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Layer:    LayerOrchestrator,
		Category: CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityDevice,
			OldState: "AWAITING_CREDENTIALS",
			NewState: "CONNECTING",
			Reason:   "credentials received",
		},
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["new_state"] != "CONNECTING" || entry["reason"] != "credentials received" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["entity"] != "DEVICE" {
		t.Errorf("entity: got %v", entry["entity"])
	}
}
