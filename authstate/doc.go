// Package authstate holds the in-memory authentication context of one portal
// client: whether the user is signed in and which profile is cached.
//
// A [State] is created by the caller and passed to whoever needs it. There
// is no package-level instance. Readers take a [Snapshot]; writers are the
// workflow engine (code check, logout, profile refresh) and the initial
// [State.Load] from the persisted session.
//
// # What this package must NOT do
//
//   - Talk to the network.
//   - Write to the session store. Persistence happens before the state is
//     flipped, in the engine.
package authstate
