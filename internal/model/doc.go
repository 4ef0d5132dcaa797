// Package model defines shared data types used across reqvest.
//
// Conventions:
//   - Tickers: uppercase exchange symbols (e.g., "AAPL", "BRK.B")
//   - Namespaces: opaque community/server identifiers, votes never cross them
//   - User IDs: opaque platform identifiers, stored as strings
package model
