// Package polygon downloads reference ticker listings from the Polygon.io REST API.
//
// The client pages through /v3/reference/tickers following next_url,
// paces requests with a token bucket limiter, and retries 429 and 5xx
// responses with jittered exponential backoff.
package polygon
