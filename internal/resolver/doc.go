// Package resolver turns free-text request tokens into tickers.
//
// Resolution ladder, per token:
//   - No alphabetic character: Unmatched, no lookup
//   - Exact ticker: Confirmed
//   - Exact normalized name: Confirmed (one ticker) or Ambiguous (several)
//   - Best fuzzy name above the threshold: same branching as an exact name
//   - Otherwise: Unmatched
package resolver
