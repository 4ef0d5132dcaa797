package model

import "testing"

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"aapl", "AAPL"},
		{"  brk.b ", "BRK.B"},
		{"MSFT", "MSFT"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTicker(tt.in); got != tt.want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultExcludedMarketsReturnsCopy(t *testing.T) {
	first := DefaultExcludedMarkets()
	first[0] = "stocks"

	if got := DefaultExcludedMarkets()[0]; got != MarketIndices {
		t.Errorf("DefaultExcludedMarkets()[0] = %q, want %q", got, MarketIndices)
	}
}
