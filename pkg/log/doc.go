// Package log provides structured event capture for Wi-Fi provisioning.
//
// This package defines the Logger interface and Event types for recording
// what happened during a provisioning session at each layer (credential
// transport, connection supervisor, orchestrator). It is separate from
// operational logging (slog): the capture is a complete machine-readable
// trace that can be replayed with the prov-log tool after the device has
// restarted.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// On the device: write to a binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/lib/buddypal/prov.plog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(console, file)
//
// # Event Types
//
//   - Transport: characteristic writes (WriteEvent) and status notifications (NotifyEvent)
//   - Supervisor: connection attempts and their outcome (AttemptEvent)
//   - Orchestrator: state changes (StateChangeEvent)
//
// Errors at any layer have a dedicated event type. Password values are
// never captured, only their length.
//
// # File Format
//
// Log files use CBOR encoding with integer keys and the .plog extension.
package log
