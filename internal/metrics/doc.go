// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Resolution outcomes by kind and method
//   - Fuzzy matching latency
//   - Open disambiguation sessions and session transitions
//   - Vote hand-off results
//   - Gateway connections and commands
package metrics
