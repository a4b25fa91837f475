// Package middleware adapts route guards to net/http.
//
// # Guards
//
//   - [Guard] wraps any [guard.Func].
//   - [RequireAuthenticated], [RequireAnonymous] and [RequireAdmin] bind the
//     three portal guards.
//
// Each middleware reads the current auth snapshot from a [SnapshotSource],
// evaluates the guard and either redirects (302) or passes the snapshot to
// the next handler through the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into guard calls. It does NOT decide
// access itself; all decisions come from package guard.
//
// # What this package must NOT do
//
//   - Read or write the session store.
//   - Call the portal backend.
//   - Render anything but the redirect.
package middleware
