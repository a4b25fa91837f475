// Package guard decides whether a route may be shown for the current auth
// snapshot, and where to send the user if not.
//
// Guards are pure functions of an [authstate.Snapshot]. They never touch the
// network or the session store, and they fail closed: anything they cannot
// positively allow is redirected.
package guard
