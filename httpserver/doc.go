// Package httpserver provides the HTTP front end.
//
// The httpserver package accepts code submissions over a small JSON API,
// translates classified outcomes into response payloads, and serves a
// minimal HTML page for manual use. Client-caused failures (bad input,
// program errors, timeouts) map to 4xx; host-side failures map to 5xx.
package httpserver
