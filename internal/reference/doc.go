// Package reference implements the Reference Index component.
//
// The Reference Index:
//   - Loads listing records once at startup (SEC company_tickers.json or a
//     reference-tickers dump written by `reqvest listings fetch`)
//   - Skips non-equity market classes (indices, OTC, FX by default)
//   - Maps normalized company names to their sorted tickers and back
//   - Is immutable after Build and shared between goroutines without locking
package reference
