// Package jwt reads the claims of a portal access token for display.
//
// The portal treats its token as opaque: only the backend can validate it.
// When the token happens to be a JWT, [Inspect] decodes the claims without
// checking the signature so the CLI can show who is signed in and when the
// token expires.
//
// # What this package must NOT do
//
//   - Make any authorization decision from the decoded claims.
//   - Hold signing or verification keys.
package jwt
