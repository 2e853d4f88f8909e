// Package provisioning drives a device from boot to a working network link.
//
// At start the Orchestrator either connects with the most recent stored
// profile or enters configuration mode. Configuration mode starts the
// transports of the configured path, waits for credentials from any of them
// and hands each set to the connection supervisor:
//
//	(start) --no profile / forced--> EnteringConfigMode
//	(start) --stored profile-------> Connecting
//	EnteringConfigMode --transports started--> AwaitingCredentials
//	AwaitingCredentials --credentials--------> Connecting
//	Connecting --Connected---------> Connected (report, grace, stop, restart)
//	Connecting --Failed/TimedOut---> AwaitingCredentials (report, keep listening)
//
// Configuration mode has no timeout of its own. Only one attempt runs at a
// time; credentials arriving meanwhile wait in a single-slot mailbox where
// the newest set wins.
package provisioning
