package model

import "strings"

// -----------------------------------------------------------------------------
// Reference Data
// -----------------------------------------------------------------------------

// Listing is one tradable instrument from the reference dataset.
// Loaded once at startup and never mutated.
type Listing struct {
	Ticker string // Exchange symbol (e.g., "GOOGL")
	Name   string // Raw company name (e.g., "Alphabet Inc. Class A")
	Market string // Optional market class: "stocks", "otc", "indices", "fx", ...
}

// Market classes that are never indexed by default.
const (
	MarketIndices = "indices"
	MarketOTC     = "otc"
	MarketFX      = "fx"
)

// DefaultExcludedMarkets lists the non-equity market classes skipped when building the index.
func DefaultExcludedMarkets() []string {
	return []string{MarketIndices, MarketOTC, MarketFX}
}

// NormalizeTicker uppercases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// -----------------------------------------------------------------------------
// Votes
// -----------------------------------------------------------------------------

// Tally is the vote count for one ticker within a namespace.
type Tally struct {
	Ticker string `json:"ticker"`
	Votes  int64  `json:"votes"`
}
