// Package status reports provisioning progress to the operator.
//
// Every outcome goes to two independent channels: the device display and
// the wire status of each active transport. Losing one channel never
// suppresses the other.
package status
