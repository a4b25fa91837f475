// Package rate provides a Redis-backed fixed-window limiter for the local
// HTTP surface.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:rl:<scope>:<subject>", e.g. "portal:rl:login:127.0.0.1".
//
// # What this package must NOT do
//
//   - Decide which requests are throttled (the web router does).
//   - Retry or delay requests; a limited request is rejected outright.
package rate
