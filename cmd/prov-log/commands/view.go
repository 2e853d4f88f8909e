// Package commands implements the prov-log CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/buddypal/wifiprov/pkg/log"
)

// Options holds the selection flags shared by the commands.
type Options struct {
	Session   string
	Transport string
	Layer     string
	Direction string
	Category  string
	Since     string
	Until     string
}

// Filter returns the reader filter and the direction for opts. Direction is
// not part of log.Filter and is checked by the caller.
func (o Options) Filter() (log.Filter, *log.Direction, error) {
	filter := log.Filter{
		SessionID: o.Session,
		Transport: o.Transport,
	}
	var dir *log.Direction

	if o.Layer != "" {
		l, err := parseLayer(o.Layer)
		if err != nil {
			return filter, nil, err
		}
		filter.Layer = &l
	}
	if o.Category != "" {
		c, err := parseCategory(o.Category)
		if err != nil {
			return filter, nil, err
		}
		filter.Category = &c
	}
	if o.Direction != "" {
		d, err := parseDirection(o.Direction)
		if err != nil {
			return filter, nil, err
		}
		dir = &d
	}
	if o.Since != "" {
		t, err := time.Parse(time.RFC3339, o.Since)
		if err != nil {
			return filter, nil, fmt.Errorf("invalid since: %w", err)
		}
		filter.Since = &t
	}
	if o.Until != "" {
		t, err := time.Parse(time.RFC3339, o.Until)
		if err != nil {
			return filter, nil, fmt.Errorf("invalid until: %w", err)
		}
		filter.Until = &t
	}
	return filter, dir, nil
}

// each calls fn for every event of path that matches opts.
func each(path string, opts Options, fn func(log.Event) error) error {
	filter, dir, err := opts.Filter()
	if err != nil {
		return err
	}
	reader, err := log.NewReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if dir != nil && event.Direction != *dir {
			continue
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

// RunView writes the matching events of path in human-readable form.
func RunView(path string, opts Options, output io.Writer) error {
	return each(path, opts, func(event log.Event) error {
		formatEvent(output, event)
		return nil
	})
}

// typeLabel names the payload carried by event.
func typeLabel(event log.Event) string {
	switch {
	case event.Write != nil:
		return "Write"
	case event.Notify != nil:
		return "Notify"
	case event.StateChange != nil:
		return "State"
	case event.Attempt != nil:
		return "Attempt"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	transport := event.Transport
	if transport == "" {
		transport = "-"
	}
	fmt.Fprintf(w, "%s [sess:%s] %-5s %s %s %s\n", ts, shortenID(event.SessionID),
		event.Direction.String(), event.Layer.String(), transport, typeLabel(event))
	if event.PeerID != "" {
		fmt.Fprintf(w, "  Peer: %s\n", event.PeerID)
	}

	switch {
	case event.Write != nil:
		formatWriteDetails(w, event.Write)
	case event.Notify != nil:
		formatNotifyDetails(w, event.Notify)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Attempt != nil:
		formatAttemptDetails(w, event.Attempt)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatWriteDetails(w io.Writer, we *log.WriteEvent) {
	fmt.Fprintf(w, "  Role: %s  Handle: 0x%04X  Size: %d bytes\n", we.Role, we.Handle, we.Size)
	if we.Value != "" {
		fmt.Fprintf(w, "  Value: %q\n", we.Value)
	}
	if we.NeedResponse {
		fmt.Fprintln(w, "  Response requested")
	}
}

func formatNotifyDetails(w io.Writer, n *log.NotifyEvent) {
	fmt.Fprintf(w, "  Payload: %q\n", n.Payload)
	if !n.Delivered {
		fmt.Fprintln(w, "  Dropped: no peer attached")
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatAttemptDetails(w io.Writer, a *log.AttemptEvent) {
	fmt.Fprintf(w, "  SSID: %s\n", a.SSID)
	fmt.Fprintf(w, "  Outcome: %s\n", a.Outcome)
	fmt.Fprintf(w, "  Duration: %s\n", formatDuration(a.Elapsed))
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// parseLayer parses a layer string (case-insensitive).
func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "supervisor":
		return log.LayerSupervisor, nil
	case "orchestrator":
		return log.LayerOrchestrator, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, supervisor, or orchestrator)", s)
	}
}

// parseDirection parses a direction string (case-insensitive).
func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	case "local":
		return log.DirectionLocal, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in, out, or local)", s)
	}
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "write":
		return log.CategoryWrite, nil
	case "notify":
		return log.CategoryNotify, nil
	case "state":
		return log.CategoryState, nil
	case "attempt":
		return log.CategoryAttempt, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be write, notify, state, attempt, or error)", s)
	}
}
