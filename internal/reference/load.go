package reference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/rickgao/reqvest/internal/model"
)

// secEntry is one value of the SEC company_tickers.json object.
type secEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// tickerEntry is one element of a reference-tickers array dump.
type tickerEntry struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Market string `json:"market"`
}

// LoadFile reads listing records from a JSON file.
func LoadFile(path string) ([]model.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open listings file: %v", ErrReferenceDataUnavailable, err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses listing records. Two shapes are accepted:
//
//	{"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ...}
//	[{"ticker": "AAPL", "name": "Apple Inc.", "market": "stocks"}, ...]
func Decode(r io.Reader) ([]model.Listing, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read listings: %v", ErrReferenceDataUnavailable, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: listings file is empty", ErrReferenceDataUnavailable)
	}

	var listings []model.Listing
	switch data[0] {
	case '{':
		listings, err = decodeSEC(data)
	case '[':
		listings, err = decodeArray(data)
	default:
		err = fmt.Errorf("unexpected leading byte %q", data[0])
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse listings: %v", ErrReferenceDataUnavailable, err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: listings file has no records", ErrReferenceDataUnavailable)
	}
	return listings, nil
}

func decodeSEC(data []byte) ([]model.Listing, error) {
	var raw map[string]secEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	// Keys are row numbers; keep file order so duplicate tickers resolve the same way every run.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})

	listings := make([]model.Listing, 0, len(raw))
	for _, k := range keys {
		e := raw[k]
		if e.Ticker == "" || e.Title == "" {
			continue
		}
		listings = append(listings, model.Listing{Ticker: e.Ticker, Name: e.Title})
	}
	return listings, nil
}

func decodeArray(data []byte) ([]model.Listing, error) {
	var raw []tickerEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	listings := make([]model.Listing, 0, len(raw))
	for _, e := range raw {
		if e.Ticker == "" {
			continue
		}
		listings = append(listings, model.Listing{Ticker: e.Ticker, Name: e.Name, Market: e.Market})
	}
	return listings, nil
}

// WriteArray encodes listings in the array shape accepted by Decode.
func WriteArray(w io.Writer, listings []model.Listing) error {
	out := make([]tickerEntry, len(listings))
	for i, l := range listings {
		out[i] = tickerEntry{Ticker: l.Ticker, Name: l.Name, Market: l.Market}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
