package status

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/buddypal/wifiprov/pkg/wifi"
)

// Default notification durations.
const (
	OutcomeDisplayTime = 3 * time.Second
	StateDisplayTime   = 2 * time.Second
	PeerDisplayTime    = 5 * time.Second
)

// Debug messages sent after the wire status.
const (
	MessageConnected = "Wi-Fi connected!"
	MessageFailed    = "Wi-Fi connection failed, check the password"
)

// Display is the device UI. ShowNotification is fire-and-forget.
type Display interface {
	ShowNotification(text string, d time.Duration)
}

// Sender is the wire side of a transport.
type Sender interface {
	SendStatus(outcome wifi.Outcome)
	SendDebug(msg string)
}

// Word returns the wire status word of outcome.
func Word(outcome wifi.Outcome) string {
	if outcome.Succeeded() {
		return "SUCCESS"
	}
	return "FAILED"
}

// Reporter sends outcomes and state changes to the operator.
type Reporter struct {
	display Display
	logger  *slog.Logger
}

// NewReporter creates a reporter. A nil display disables the UI channel.
func NewReporter(display Display, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reporter{display: display, logger: logger}
}

// ReportOutcome shows outcome on the display, then sends it on every
// transport.
func (r *Reporter) ReportOutcome(outcome wifi.Outcome, transports ...Sender) {
	text, msg := outcomeText(outcome)
	r.show(text, OutcomeDisplayTime)

	for _, t := range transports {
		if t == nil {
			continue
		}
		t.SendStatus(outcome)
		t.SendDebug(msg)
	}
	r.logger.Info("outcome reported", "outcome", outcome.String(), "word", Word(outcome), "transports", len(transports))
}

// DisplayState is a state that may carry a display text.
type DisplayState interface {
	fmt.Stringer

	// DisplayText returns the notification for entering the state, or ""
	// when the state has none.
	DisplayText(detail string) string
}

// ReportState shows a state change on the display. States without a UI
// text are only logged.
func (r *Reporter) ReportState(from, to DisplayState, detail string) {
	r.logger.Debug("state change", "from", from.String(), "to", to.String(), "detail", detail)
	if text := to.DisplayText(detail); text != "" {
		r.show(text, StateDisplayTime)
	}
}

// ReportPeer shows an operator device attaching to transport. Detaching is
// only logged.
func (r *Reporter) ReportPeer(transport string, connected bool) {
	r.logger.Info("operator device", "transport", transport, "connected", connected)
	if connected {
		r.show(PeerText(transport), PeerDisplayTime)
	}
}

// PeerText returns the display text for a device attaching to transport,
// e.g. "BLE device connected".
func PeerText(transport string) string {
	return fmt.Sprintf("%s device connected", strings.ToUpper(transport))
}

func (r *Reporter) show(text string, d time.Duration) {
	if r.display == nil {
		return
	}
	r.display.ShowNotification(text, d)
}

func outcomeText(outcome wifi.Outcome) (display, debug string) {
	switch outcome.Kind {
	case wifi.OutcomeConnected:
		return fmt.Sprintf("Connected to %s", outcome.SSID), MessageConnected
	case wifi.OutcomeTimedOut:
		return fmt.Sprintf("Connection to %s timed out", outcome.SSID), MessageFailed
	default:
		return fmt.Sprintf("Could not connect to %s", outcome.SSID), MessageFailed
	}
}
