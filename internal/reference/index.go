package reference

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rickgao/reqvest/internal/model"
	"github.com/rickgao/reqvest/internal/normalize"
)

// ErrReferenceDataUnavailable means no usable index could be built.
// Callers treat it as fatal at startup.
var ErrReferenceDataUnavailable = errors.New("reference data unavailable")

// Options controls which listings are indexed.
type Options struct {
	// ExcludeMarkets lists market classes to skip (case-insensitive).
	// nil selects model.DefaultExcludedMarkets; an empty non-nil slice excludes nothing.
	ExcludeMarkets []string
}

// Stats summarizes a built index.
type Stats struct {
	Listings  int // Records seen
	Excluded  int // Records skipped by market class or missing ticker
	Duplicate int // Records whose ticker was already indexed
	Tickers   int // Distinct tickers indexed
	Names     int // Distinct normalized names
	Ambiguous int // Names with more than one ticker
}

// Index maps normalized company names to tickers and back.
// Read-only after Build; safe for concurrent use.
type Index struct {
	companyToTickers map[normalize.Name][]string
	tickerToCompany  map[string]normalize.Name

	// Sorted name keys, the fuzzy-matching universe.
	names []string

	stats Stats
}

// Build creates an index from listing records.
func Build(listings []model.Listing, opts Options) (*Index, error) {
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: no listings", ErrReferenceDataUnavailable)
	}

	excluded := make(map[string]struct{})
	markets := opts.ExcludeMarkets
	if markets == nil {
		markets = model.DefaultExcludedMarkets()
	}
	for _, m := range markets {
		excluded[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}

	idx := &Index{
		companyToTickers: make(map[normalize.Name][]string),
		tickerToCompany:  make(map[string]normalize.Name),
	}
	idx.stats.Listings = len(listings)

	for _, l := range listings {
		ticker := model.NormalizeTicker(l.Ticker)
		if ticker == "" {
			idx.stats.Excluded++
			continue
		}
		if _, skip := excluded[strings.ToLower(strings.TrimSpace(l.Market))]; skip && l.Market != "" {
			idx.stats.Excluded++
			continue
		}
		if _, dup := idx.tickerToCompany[ticker]; dup {
			idx.stats.Duplicate++
			continue
		}

		name := normalize.Normalize(l.Name)
		if name == "" {
			// Keep the ticker reachable by name too.
			name = normalize.Name(ticker)
		}

		idx.companyToTickers[name] = append(idx.companyToTickers[name], ticker)
		idx.tickerToCompany[ticker] = name
	}

	if len(idx.tickerToCompany) == 0 {
		return nil, fmt.Errorf("%w: all %d listings were excluded", ErrReferenceDataUnavailable, len(listings))
	}

	idx.names = make([]string, 0, len(idx.companyToTickers))
	for name, tickers := range idx.companyToTickers {
		sort.Strings(tickers)
		idx.names = append(idx.names, string(name))
		if len(tickers) > 1 {
			idx.stats.Ambiguous++
		}
	}
	sort.Strings(idx.names)

	idx.stats.Tickers = len(idx.tickerToCompany)
	idx.stats.Names = len(idx.names)

	return idx, nil
}

// Tickers returns the sorted tickers listed under a normalized name.
// The returned slice is a copy.
func (idx *Index) Tickers(name normalize.Name) ([]string, bool) {
	tickers, ok := idx.companyToTickers[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), tickers...), true
}

// Company returns the normalized name a ticker is listed under.
func (idx *Index) Company(ticker string) (normalize.Name, bool) {
	name, ok := idx.tickerToCompany[ticker]
	return name, ok
}

// HasTicker reports whether ticker is indexed.
func (idx *Index) HasTicker(ticker string) bool {
	_, ok := idx.tickerToCompany[ticker]
	return ok
}

// Names returns all normalized name keys in sorted order.
// Callers must not modify the returned slice.
func (idx *Index) Names() []string {
	return idx.names
}

// Len returns the number of indexed tickers.
func (idx *Index) Len() int {
	return len(idx.tickerToCompany)
}

// Stats returns build statistics.
func (idx *Index) Stats() Stats {
	return idx.stats
}
