// Package apportal provides the local access point provisioning strategy.
//
// The device opens its own hotspot and serves a form where the operator
// enters network credentials. The hotspot and its web server are external
// collaborators behind AccessPoint; this package adapts them to the
// orchestrator's transport interface, composes the operator hint and
// optionally announces the form over mDNS so phones on the hotspot can find
// it without typing the address.
package apportal
