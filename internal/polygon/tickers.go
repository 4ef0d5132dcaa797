package polygon

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rickgao/reqvest/internal/model"
)

// TickerResult is one entry of /v3/reference/tickers.
type TickerResult struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	Locale          string `json:"locale"`
	PrimaryExchange string `json:"primary_exchange"`
	Type            string `json:"type"`
	Active          bool   `json:"active"`
	CurrencyName    string `json:"currency_name"`
	CIK             string `json:"cik"`
	LastUpdatedUTC  string `json:"last_updated_utc"`
}

// ToListing converts the result to a reference listing.
func (r TickerResult) ToListing() model.Listing {
	return model.Listing{
		Ticker: model.NormalizeTicker(r.Ticker),
		Name:   strings.TrimSpace(r.Name),
		Market: strings.ToLower(strings.TrimSpace(r.Market)),
	}
}

// tickersResponse is one page of /v3/reference/tickers.
type tickersResponse struct {
	Results   []TickerResult `json:"results"`
	Status    string         `json:"status"`
	Count     int            `json:"count"`
	NextURL   string         `json:"next_url"`
	RequestID string         `json:"request_id"`
}

// TickersParams filters the ticker listing.
type TickersParams struct {
	Market string // stocks, crypto, fx, otc, indices; empty for all
	Active bool
	Limit  int // Page size, at most 1000
}

// EachTickersPage fetches every page of tickers, calling fn once per page.
// Iteration stops at the first error from fn.
func (c *Client) EachTickersPage(ctx context.Context, params TickersParams, fn func([]TickerResult) error) error {
	q := url.Values{}
	if params.Market != "" {
		q.Set("market", params.Market)
	}
	q.Set("active", strconv.FormatBool(params.Active))
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	next := c.baseURL + "/v3/reference/tickers?" + q.Encode()

	for page := 1; next != ""; page++ {
		var resp tickersResponse
		if err := c.get(ctx, next, &resp); err != nil {
			return fmt.Errorf("fetch tickers page %d: %w", page, err)
		}

		c.logger.Debug("fetched tickers page",
			"page", page,
			"count", len(resp.Results),
			"has_next", resp.NextURL != "",
		)

		if err := fn(resp.Results); err != nil {
			return err
		}
		next = resp.NextURL
	}
	return nil
}

// FetchAllTickers returns every ticker matching params.
func (c *Client) FetchAllTickers(ctx context.Context, params TickersParams) ([]TickerResult, error) {
	var all []TickerResult
	err := c.EachTickersPage(ctx, params, func(page []TickerResult) error {
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("fetched tickers", "total", len(all))
	return all, nil
}

// ToListings converts results to listings, skipping entries without a ticker.
func ToListings(results []TickerResult) []model.Listing {
	listings := make([]model.Listing, 0, len(results))
	for _, r := range results {
		l := r.ToListing()
		if l.Ticker == "" {
			continue
		}
		listings = append(listings, l)
	}
	return listings
}
