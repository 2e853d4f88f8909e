// Package connect owns the single authoritative attempt to apply received
// Wi-Fi credentials.
//
// An attempt persists the credentials first, then asks the network layer to
// connect and waits for whichever comes first:
//   - the network layer reports a connection
//   - the network layer reports a failure
//   - the timeout elapses (default: 60 seconds)
//   - the caller's context is cancelled
//
// Timeout and cancellation both resolve as TimedOut. Only one attempt may be
// outstanding; a concurrent call fails fast with ErrBusy. The supervisor never
// retries, retry policy belongs to the orchestrator.
package connect
