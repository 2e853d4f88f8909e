package log

import (
	"testing"
	"time"
)

func TestEncodeDecodeWriteEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	event := Event{
		Timestamp: ts,
		SessionID: "sess-1",
		Direction: DirectionIn,
		Layer:     LayerTransport,
		Category:  CategoryWrite,
		Transport: "ble",
		PeerID:    "1",
		Write: &WriteEvent{
			Role:         "ssid",
			Handle:       42,
			Size:         7,
			Value:        "HomeNet",
			NeedResponse: true,
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp: got %v, want %v", got.Timestamp, ts)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID: got %q, want %q", got.SessionID, "sess-1")
	}
	if got.Write == nil {
		t.Fatal("Write is nil")
	}
	if got.Write.Value != "HomeNet" || got.Write.Handle != 42 || !got.Write.NeedResponse {
		t.Errorf("Write: got %+v", *got.Write)
	}
	if got.Notify != nil || got.StateChange != nil || got.Attempt != nil || got.Error != nil {
		t.Error("unexpected payload set after round trip")
	}
}

func TestEncodeAttemptKeepsDuration(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		Layer:     LayerSupervisor,
		Category:  CategoryAttempt,
		Attempt:   &AttemptEvent{SSID: "HomeNet", Outcome: "TIMED_OUT", Elapsed: 60 * time.Second},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if got.Attempt == nil || got.Attempt.Elapsed != 60*time.Second {
		t.Errorf("Attempt: got %+v", got.Attempt)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error decoding garbage")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionLocal.String(), "LOCAL"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerSupervisor.String(), "SUPERVISOR"},
		{Layer(9).String(), "UNKNOWN"},
		{CategoryNotify.String(), "NOTIFY"},
		{Category(9).String(), "UNKNOWN"},
		{StateEntityBringUp.String(), "BRINGUP"},
		{StateEntity(9).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
