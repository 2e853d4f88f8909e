// Package settings persists the small amount of state provisioning needs
// across restarts: the list of known network profiles and integer flags such
// as the one-shot "force configuration mode" marker.
//
// Three stores implement Store:
//   - MemoryStore keeps everything in memory (tests, volatile devices)
//   - FileStore writes a JSON document atomically (temp file + rename)
//   - SQLiteStore keeps profiles and flags in an SQLite database
//
// A profile is always written as a whole record. A crash between persisting a
// profile and connecting with it leaves either the previous document or the
// new one, never a half-written profile.
//
// Durable stores optionally seal passwords at rest with a Sealer.
package settings
