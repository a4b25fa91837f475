// Package workflow models the two multi-step auth flows of the portal as
// explicit state machines: login (password, then one-time code) and password
// reset (request code, then reset with code and new password).
//
// States and events are closed sets of concrete types. [Transition] is the
// only function that moves between states; anything it does not list is
// rejected with [ErrInvalidTransition] and the caller keeps its old state.
//
// Transitions are driven by backend outcomes, not by timers. Code expiry is
// enforced server-side and arrives here as a rejection event.
package workflow
