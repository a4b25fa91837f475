// Package gateway is the portal's single shared HTTP client for the backend
// REST API.
//
// Every request carries JSON content type, a request ID and, when one is
// held in memory, the bearer access token. Responses pass through two
// interception paths before the caller sees them:
//
//   - success: registered [ResponseClassifier]s whose Match accepts the
//     request are handed the raw body (the engine uses this to capture freshly
//     issued tokens);
//   - error: every failure except HTTP 422 produces exactly one user-facing
//     notification. 422 is left to the caller, which maps field errors into
//     its own form state.
//
// In both cases the original response or error is still returned to the
// caller.
//
// # What this package must NOT do
//
//   - Know which endpoints issue tokens (classifiers are injected).
//   - Retry requests.
//   - Persist anything itself.
package gateway
