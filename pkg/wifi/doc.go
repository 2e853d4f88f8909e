// Package wifi holds the values shared by every provisioning component:
// the credentials an operator supplies, the outcome of one connection
// attempt, and the single-slot mailbox used to hand credentials from a
// transport to the orchestrator.
//
// # Queue-and-replace
//
// A Mailbox keeps at most one undelivered value. Putting a new value while
// an older one is still waiting replaces it, so a consumer that is busy with
// a connection attempt only ever sees the newest credentials once it reads
// again.
package wifi
