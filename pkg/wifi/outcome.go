package wifi

import "fmt"

// OutcomeKind classifies the result of one connection attempt.
type OutcomeKind uint8

const (
	// OutcomeConnected indicates the network layer reported a connection.
	OutcomeConnected OutcomeKind = iota + 1

	// OutcomeFailed indicates the network layer reported a failure, or the
	// attempt could not be started.
	OutcomeFailed

	// OutcomeTimedOut indicates nothing was reported before the deadline,
	// or the attempt was cancelled.
	OutcomeTimedOut
)

// String returns the outcome kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeConnected:
		return "CONNECTED"
	case OutcomeFailed:
		return "FAILED"
	case OutcomeTimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Outcome is produced exactly once per connection attempt.
type Outcome struct {
	Kind OutcomeKind
	SSID string
}

// Connected returns a successful outcome for ssid.
func Connected(ssid string) Outcome { return Outcome{Kind: OutcomeConnected, SSID: ssid} }

// Failed returns a failed outcome for ssid.
func Failed(ssid string) Outcome { return Outcome{Kind: OutcomeFailed, SSID: ssid} }

// TimedOut returns a timed-out outcome for ssid.
func TimedOut(ssid string) Outcome { return Outcome{Kind: OutcomeTimedOut, SSID: ssid} }

// Succeeded reports whether the attempt connected.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeConnected
}

// String returns e.g. CONNECTED(HomeNet).
func (o Outcome) String() string {
	return fmt.Sprintf("%s(%s)", o.Kind, o.SSID)
}
