package status

import (
	"log/slog"
	"sync"
	"time"
)

// LogDisplay is a Display for headless builds that writes notifications to
// a logger.
type LogDisplay struct {
	Logger *slog.Logger
}

// ShowNotification logs text.
func (d LogDisplay) ShowNotification(text string, dur time.Duration) {
	if d.Logger == nil {
		return
	}
	d.Logger.Info("display", "text", text, "duration", dur)
}

// Notice is one notification shown on a RecordingDisplay.
type Notice struct {
	Text     string
	Duration time.Duration
}

// RecordingDisplay keeps every notification. It is used by the simulation
// console to show what a screen would have shown.
type RecordingDisplay struct {
	mu      sync.Mutex
	notices []Notice
}

// ShowNotification records text.
func (d *RecordingDisplay) ShowNotification(text string, dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, Notice{Text: text, Duration: dur})
}

// Notices returns a copy of the recorded notifications.
func (d *RecordingDisplay) Notices() []Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Notice, len(d.notices))
	copy(out, d.notices)
	return out
}

// Last returns the most recent notification text.
func (d *RecordingDisplay) Last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.notices) == 0 {
		return ""
	}
	return d.notices[len(d.notices)-1].Text
}
