// Package web serves the portal over local HTTP: a JSON API for the auth
// workflow plus the guarded pages, each behind the same guards the CLI uses.
//
// Routes:
//
//	GET  /healthz                       liveness
//	GET  /metrics                       Prometheus exposition (Options.Metrics)
//	GET  /auth/state                    auth snapshot and workflow states
//	POST /auth/login                    step one, anonymous only
//	POST /auth/check-code               step two, anonymous only
//	POST /auth/resend-code              anonymous only
//	POST /auth/forgot-password/request  anonymous only
//	POST /auth/forgot-password          anonymous only
//	POST /auth/logout
//	GET  /  /login  /account/projects  /admin   guarded pages
//
// Guard failures answer 302 with the target route in Location. Backend
// errors keep their HTTP status; the body carries the user message and any
// per-field validation messages.
package web
