package status

import (
	"encoding/json"

	"github.com/buddypal/wifiprov/pkg/connect"
)

// NetworkStatus is the "network" object of the device status document.
type NetworkStatus struct {
	Type   string `json:"type"`
	SSID   string `json:"ssid"`
	Signal string `json:"signal"`
}

// NewNetworkStatus builds the status for a station link.
func NewNetworkStatus(ssid string, rssi int) NetworkStatus {
	return NetworkStatus{
		Type:   "wifi",
		SSID:   ssid,
		Signal: connect.ClassifySignal(rssi).String(),
	}
}

// DeviceStatusJSON returns {"network": {...}} for the station link.
func DeviceStatusJSON(ssid string, rssi int) ([]byte, error) {
	doc := struct {
		Network NetworkStatus `json:"network"`
	}{Network: NewNetworkStatus(ssid, rssi)}
	return json.Marshal(doc)
}
