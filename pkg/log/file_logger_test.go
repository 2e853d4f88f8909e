package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prov.plog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file was not created: %v", err)
	}
}

func TestFileLoggerRoundTripThroughReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prov.plog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	base := time.Now()
	logger.Log(Event{Timestamp: base, SessionID: "a", Transport: "ble", Layer: LayerTransport, Category: CategoryWrite,
		Write: &WriteEvent{Role: "ssid", Size: 7, Value: "HomeNet"}})
	logger.Log(Event{Timestamp: base.Add(time.Millisecond), SessionID: "a", Transport: "ble", Layer: LayerTransport, Category: CategoryNotify,
		Notify: &NotifyEvent{Payload: "SUCCESS", Delivered: true}})
	logger.Log(Event{Timestamp: base.Add(2 * time.Millisecond), SessionID: "b", Layer: LayerOrchestrator, Category: CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityDevice, OldState: "CONNECTING", NewState: "CONNECTED"}})

	if logger.Written() != 3 {
		t.Errorf("Written: got %d, want 3", logger.Written())
	}
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	t.Run("All", func(t *testing.T) {
		r, err := NewReader(path, Filter{})
		if err != nil {
			t.Fatalf("NewReader failed: %v", err)
		}
		defer r.Close()

		count := 0
		for {
			_, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("Next failed: %v", err)
			}
			count++
		}
		if count != 3 {
			t.Errorf("events: got %d, want 3", count)
		}
	})

	t.Run("ByCategory", func(t *testing.T) {
		cat := CategoryNotify
		r, err := NewReader(path, Filter{Category: &cat})
		if err != nil {
			t.Fatalf("NewReader failed: %v", err)
		}
		defer r.Close()

		ev, err := r.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if ev.Notify == nil || ev.Notify.Payload != "SUCCESS" {
			t.Errorf("unexpected event %+v", ev)
		}
		if _, err := r.Next(); !errors.Is(err, io.EOF) {
			t.Errorf("expected EOF, got %v", err)
		}
	})

	t.Run("BySession", func(t *testing.T) {
		r, err := NewReader(path, Filter{SessionID: "b"})
		if err != nil {
			t.Fatalf("NewReader failed: %v", err)
		}
		defer r.Close()

		ev, err := r.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if ev.StateChange == nil || ev.StateChange.NewState != "CONNECTED" {
			t.Errorf("unexpected event %+v", ev)
		}
	})
}

func TestFileLoggerIgnoresAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prov.plog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	logger.Log(Event{Timestamp: time.Now()})
	if logger.Written() != 0 {
		t.Errorf("Written after close: got %d, want 0", logger.Written())
	}
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync after close: %v", err)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prov.plog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(Event{Timestamp: time.Now(), Category: CategoryState,
				StateChange: &StateChangeEvent{NewState: "X"}})
		}()
	}
	wg.Wait()

	if logger.Written() != 20 {
		t.Errorf("Written: got %d, want 20", logger.Written())
	}
}
