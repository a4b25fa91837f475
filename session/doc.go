// Package session persists the portal's client-side session: the bearer access
// token issued by the backend and a cached copy of the signed-in user's profile.
//
// # Storage backends
//
// [Store] sits on top of a [Storage], the key/value abstraction that plays the
// role of browser local storage. Three backends ship with the package:
// [MemoryStorage] (process-local), [FileStorage] (a JSON file in the user's
// config directory) and [RedisStorage] (shared Redis, namespaced by prefix).
//
// # Architecture boundaries
//
// This package owns the persisted shape of the session. It does NOT interpret
// tokens, talk to the portal backend, or decide who is authenticated. The
// Engine and the authstate package do that.
//
// # What this package must NOT do
//
//   - Import portal, gateway, authstate or guard (no upward imports).
//   - Validate token shape or expiry.
//   - Surface storage corruption as a panic; malformed data reads as absent.
package session
