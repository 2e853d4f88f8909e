package connect

// Station is the network layer collaborator (the radio driver's station mode).
type Station interface {
	// Connect starts connecting to ssid. The returned channel receives nil
	// once connected or an error once the attempt failed. It may never
	// receive anything if the network layer hangs.
	Connect(ssid, password string) <-chan error

	// IsConnected reports whether the station currently has a link.
	IsConnected() bool

	// RSSI returns the current signal strength in dBm.
	RSSI() int

	// Stop aborts any connection activity.
	Stop() error
}

// Signal is a coarse signal class used for the network state indicator.
type Signal uint8

const (
	// SignalOff means no link.
	SignalOff Signal = iota
	// SignalWeak is below -70 dBm.
	SignalWeak
	// SignalMedium is -70 dBm up to -61 dBm.
	SignalMedium
	// SignalStrong is -60 dBm or better.
	SignalStrong
)

// String returns the signal class name.
func (s Signal) String() string {
	switch s {
	case SignalOff:
		return "off"
	case SignalWeak:
		return "weak"
	case SignalMedium:
		return "medium"
	case SignalStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// ClassifySignal maps an RSSI reading to a signal class.
func ClassifySignal(rssi int) Signal {
	switch {
	case rssi >= -60:
		return SignalStrong
	case rssi >= -70:
		return SignalMedium
	default:
		return SignalWeak
	}
}

// StationSignal returns SignalOff when st is not connected, otherwise the
// class of its current RSSI.
func StationSignal(st Station) Signal {
	if st == nil || !st.IsConnected() {
		return SignalOff
	}
	return ClassifySignal(st.RSSI())
}
