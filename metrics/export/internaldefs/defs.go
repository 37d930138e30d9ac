package internaldefs

import (
	misauth "github.com/talha-007/mis-dashboard-sub000"
)

// CounterDef defines a public type used by misauth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   misauth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by misauth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   misauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session engine.
var CounterDefs = []CounterDef{
	{ID: misauth.MetricBootstrapRestored, Name: "misauth_bootstrap_restored_total", Help: "Sessions restored from the store without a network call."},
	{ID: misauth.MetricBootstrapEmpty, Name: "misauth_bootstrap_empty_total", Help: "Bootstraps that found no usable session."},
	{ID: misauth.MetricBootstrapRevalidated, Name: "misauth_bootstrap_revalidated_total", Help: "Sessions restored after backend revalidation."},
	{ID: misauth.MetricBootstrapRejected, Name: "misauth_bootstrap_rejected_total", Help: "Cached sessions evicted by backend rejection at bootstrap."},
	{ID: misauth.MetricLoginSuccess, Name: "misauth_login_success_total", Help: "Successful login attempts."},
	{ID: misauth.MetricLoginFailure, Name: "misauth_login_failure_total", Help: "Failed login attempts."},
	{ID: misauth.MetricLoginStaleDiscarded, Name: "misauth_login_stale_discarded_total", Help: "Login completions discarded as superseded."},
	{ID: misauth.MetricLogout, Name: "misauth_logout_total", Help: "Logout operations."},
	{ID: misauth.MetricRefreshSuccess, Name: "misauth_refresh_success_total", Help: "Successful principal refresh operations."},
	{ID: misauth.MetricRefreshFailure, Name: "misauth_refresh_failure_total", Help: "Failed principal refresh operations."},
	{ID: misauth.MetricSessionRevoked, Name: "misauth_session_revoked_total", Help: "Sessions revoked by an explicit backend rejection."},
	{ID: misauth.MetricTokenRotated, Name: "misauth_token_rotated_total", Help: "In-place credential rotations."},
	{ID: misauth.MetricStoreCorruptEntry, Name: "misauth_store_corrupt_entry_total", Help: "Corrupt store entries treated as absent."},
	{ID: misauth.MetricStoreWriteFailure, Name: "misauth_store_write_failure_total", Help: "Best-effort store writes that failed."},
	{ID: misauth.MetricChannelConnect, Name: "misauth_channel_connect_total", Help: "Realtime channel bindings established."},
	{ID: misauth.MetricChannelDisconnect, Name: "misauth_channel_disconnect_total", Help: "Realtime channel bindings released."},
	{ID: misauth.MetricChannelResubscribe, Name: "misauth_channel_resubscribe_total", Help: "Notification subscriptions sent on connect or reconnect."},
	{ID: misauth.MetricGuardDenied, Name: "misauth_guard_denied_total", Help: "Route guard decisions that denied access."},
}

// HistogramDefs is an exported constant or variable used by the session engine.
var HistogramDefs = []HistogramDef{
	{ID: misauth.MetricLoginLatency, Name: "misauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
