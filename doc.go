// Package portal is the client-side auth core of the MiniApp customer and
// admin portal: a two-step login (password, then emailed code), a two-step
// password reset, a persisted session and the route guards that depend on
// it.
//
// The package is designed for concurrent use: Engine methods are safe to
// call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// portal is the orchestration layer. It owns [Engine], [Builder], [Config]
// and the result types. The leaf components live in sub-packages:
//
//   - session: token and profile persistence (memory, file, Redis).
//   - gateway: the shared backend client and its error types.
//   - workflow: the login and reset state machines.
//   - authstate: the injectable auth context.
//   - guard and middleware: route decisions and their net/http adapters.
//   - notify: user-facing notifications.
//
// The engine supplies the gateway with the classifiers that capture tokens
// from login-like responses; the gateway itself knows no auth paths.
//
// # What this package must NOT do
//
//   - Keep global state. Every engine has its own store, client and auth
//     context.
//   - Call a server-side logout. Logout is local only.
//   - Validate tokens. The backend is the only authority on a token.
//   - Log passwords, codes or full tokens.
package portal
