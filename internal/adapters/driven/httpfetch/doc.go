// Package httpfetch implements driven.Fetcher over net/http.
//
// Requests are throttled per fetcher with a token bucket, carry a
// User-Agent and, when configured, a static bearer token.
package httpfetch
