// Package votes stores ticker votes per namespace.
//
// Implementations:
//   - PostgresStore: members, requests and member_requests tables (pgx)
//   - MemoryStore: same semantics held in memory
//   - Retrying: decorator adding jittered exponential backoff
//
// A member votes for a ticker at most once per namespace; repeat votes are
// ignored. Counts are ordered by votes descending, then ticker.
package votes
