// Package session tracks per-user disambiguation sessions.
//
// A session opens when a request yields one or more ambiguous terms and
// stays open until the user has chosen a ticker for each of them. The
// confirmed tickers are then handed to a FlushFunc and the session is
// removed.
//
// Key features:
//   - Session values with pure Choose transitions
//   - Per-key mutual exclusion; different users never block each other
//   - Removal deferred until the flush is acknowledged
//   - Snapshot of open sessions for health and debug endpoints
package session
