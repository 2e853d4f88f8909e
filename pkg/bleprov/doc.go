// Package bleprov implements the short-range credential-exchange service.
//
// The service exposes one GATT-style service with three characteristics:
//
//	service   0x1234
//	ssid      0x1235  written by the operator, raw UTF-8
//	password  0x1236  written by the operator, raw UTF-8
//	status    0x1237  notified by the device: "SUCCESS", "FAILED", "DEBUG: <msg>"
//
// The radio stack is abstracted behind Platform. Every Platform call is a
// non-blocking request; acknowledgements arrive later as Event values on the
// platform's own goroutine. The Service walks a strictly ordered bring-up:
//
//	Unregistered -> Registering -> ServiceCreating -> AddingSSID ->
//	AddingPassword -> AddingStatus -> ServiceReady -> Advertising
//
// Characteristic acknowledgements carry only a handle, so they are assigned
// to roles by arrival order: the current step names the role the next
// CharacteristicAdded belongs to. Platforms must acknowledge in request order.
//
// Complete credentials (both fields non-empty at the time of a password
// write) are delivered on Credentials(). An unconsumed value is replaced by
// a newer one.
package bleprov
