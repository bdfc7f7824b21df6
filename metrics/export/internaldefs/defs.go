package internaldefs

import (
	credo "github.com/iglesia-app/credo"
)

// CounterDef defines a public type used by credo APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   credo.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by credo APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   credo.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the identity engine.
var CounterDefs = []CounterDef{
	{ID: credo.MetricSignInSuccess, Name: "credo_sign_in_success_total", Help: "Successful sign-in attempts."},
	{ID: credo.MetricSignInFailure, Name: "credo_sign_in_failure_total", Help: "Failed sign-in attempts."},
	{ID: credo.MetricSignInRateLimited, Name: "credo_sign_in_rate_limited_total", Help: "Rate-limited sign-in attempts."},
	{ID: credo.MetricSignInProvider, Name: "credo_sign_in_provider_total", Help: "Federated provider sign-ins."},
	{ID: credo.MetricSignInCancelled, Name: "credo_sign_in_cancelled_total", Help: "Provider consent screens dismissed by the user."},
	{ID: credo.MetricSignOut, Name: "credo_sign_out_total", Help: "Sign-out operations."},
	{ID: credo.MetricRegisterSuccess, Name: "credo_register_success_total", Help: "Successful registrations."},
	{ID: credo.MetricRegisterFailure, Name: "credo_register_failure_total", Help: "Failed registrations."},
	{ID: credo.MetricBootstrapCreated, Name: "credo_bootstrap_created_total", Help: "Profiles synthesized for orphaned credentials."},
	{ID: credo.MetricPasswordChangeSuccess, Name: "credo_password_change_success_total", Help: "Successful password changes."},
	{ID: credo.MetricPasswordChangeFailure, Name: "credo_password_change_failure_total", Help: "Failed password changes."},
	{ID: credo.MetricPasswordResetSent, Name: "credo_password_reset_sent_total", Help: "Password reset emails requested."},
	{ID: credo.MetricTemporaryIssued, Name: "credo_temporary_password_issued_total", Help: "Admin-issued temporary passwords."},
	{ID: credo.MetricOverridesSaved, Name: "credo_permission_overrides_saved_total", Help: "Permission override writes."},
	{ID: credo.MetricOverridesReset, Name: "credo_permission_overrides_reset_total", Help: "Permission override resets."},
	{ID: credo.MetricOverridesRejected, Name: "credo_permission_overrides_rejected_total", Help: "Rejected permission override writes."},
	{ID: credo.MetricSessionAuthenticated, Name: "credo_session_authenticated_total", Help: "Transitions into the Authenticated session state."},
	{ID: credo.MetricSessionUnauthenticated, Name: "credo_session_unauthenticated_total", Help: "Transitions into the Unauthenticated session state."},
	{ID: credo.MetricRateLimitHit, Name: "credo_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// HistogramDefs is an exported constant or variable used by the identity engine.
var HistogramDefs = []HistogramDef{
	{ID: credo.MetricSignInLatency, Name: "credo_sign_in_latency_seconds", Help: "Sign-in latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the identity engine.
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

// HistogramBoundSuffix is an exported constant or variable used by the identity engine.
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
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
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
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
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
