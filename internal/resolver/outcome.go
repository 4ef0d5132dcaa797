package resolver

import "github.com/rickgao/reqvest/internal/normalize"

// Kind classifies a resolution outcome.
type Kind int

const (
	Unmatched Kind = iota
	Confirmed
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Confirmed:
		return "confirmed"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unmatched"
	}
}

// Method records which rung of the ladder produced an outcome.
type Method string

const (
	MethodNone   Method = ""
	MethodTicker Method = "ticker"
	MethodName   Method = "name"
	MethodFuzzy  Method = "fuzzy"
)

// Outcome is the resolution of one request token.
type Outcome struct {
	Kind  Kind
	Token string // Uppercased request token as submitted

	// Confirmed only.
	Ticker string

	// Ambiguous only: sorted candidate tickers for MatchedName.
	Candidates []string

	// Name the token matched (exact or fuzzy); empty for ticker hits and Unmatched.
	MatchedName normalize.Name

	Method Method
	Score  float64 // Fuzzy score, 100 for exact hits
}
