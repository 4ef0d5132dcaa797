// Package database provides PostgreSQL connection pool management.
//
// The pool backs the vote store:
//   - members: who voted, with their latest display name
//   - requests: every ticker that received a vote
//   - member_requests: one row per (member, ticker) vote
package database
