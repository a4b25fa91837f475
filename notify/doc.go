// Package notify carries user-facing notifications ("toasts") from the portal
// engine and HTTP gateway to whatever surface displays them.
//
// Notifications are fire-and-forget: [Notifier.Notify] returns nothing and a
// failing sink never changes the outcome of the operation that produced the
// notification. [Dispatcher] decouples producers from slow sinks.
package notify
