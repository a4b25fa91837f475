package internaldefs

import (
	portal "github.com/miniapp-agency/portal"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   portal.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   portal.MetricID
	Name string
	Help string
}

// NotifyDroppedName is the counter for notifications lost to a full
// dispatcher buffer.
const NotifyDroppedName = "portal_notify_dropped_total"

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: portal.MetricLoginSuccess, Name: "portal_login_success_total", Help: "Accepted credential submissions."},
	{ID: portal.MetricLoginFailure, Name: "portal_login_failure_total", Help: "Rejected or failed credential submissions."},
	{ID: portal.MetricCodeCheckSuccess, Name: "portal_code_check_success_total", Help: "Accepted one-time codes."},
	{ID: portal.MetricCodeCheckFailure, Name: "portal_code_check_failure_total", Help: "Rejected one-time codes."},
	{ID: portal.MetricCodeResent, Name: "portal_code_resent_total", Help: "Successful resend-code requests."},
	{ID: portal.MetricCodeResendFailure, Name: "portal_code_resend_failure_total", Help: "Failed resend-code requests."},
	{ID: portal.MetricPasswordResetRequest, Name: "portal_password_reset_request_total", Help: "Password reset codes requested."},
	{ID: portal.MetricPasswordResetRequestFailure, Name: "portal_password_reset_request_failure_total", Help: "Failed password reset code requests."},
	{ID: portal.MetricPasswordResetSuccess, Name: "portal_password_reset_success_total", Help: "Completed password resets."},
	{ID: portal.MetricPasswordResetFailure, Name: "portal_password_reset_failure_total", Help: "Rejected password resets."},
	{ID: portal.MetricSessionCreated, Name: "portal_session_created_total", Help: "Sessions persisted from login-like responses."},
	{ID: portal.MetricSessionPersistFailure, Name: "portal_session_persist_failure_total", Help: "Session store write failures."},
	{ID: portal.MetricLogout, Name: "portal_logout_total", Help: "Logout calls."},
	{ID: portal.MetricProfileRefreshSuccess, Name: "portal_profile_refresh_success_total", Help: "Profile fetches."},
	{ID: portal.MetricProfileRefreshFailure, Name: "portal_profile_refresh_failure_total", Help: "Failed profile fetches."},
	{ID: portal.MetricValidationRejected, Name: "portal_validation_rejected_total", Help: "Requests rejected with 422."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: portal.MetricRequestLatency, Name: "portal_request_latency_seconds", Help: "Backend request latency."},
}

// HistogramUpperBounds are the bucket upper bounds in seconds, excluding
// +Inf.
var HistogramUpperBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// flatten buckets into separate instruments.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
