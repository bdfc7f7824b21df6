// Package credo provides the identity and authorization engine for a
// church-management application: dual-backend authentication (a remote
// identity service or a Redis-persisted local directory, selected once at
// startup), login-identifier resolution, lazy profile bootstrap, a
// self-service and admin-facing password manager, and role-based module
// permissions resolved from a static catalog merged with per-role
// overrides.
//
// The package is designed for a single logical session per process: Engine
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build], and the session observer is the only writer of
// session state.
//
// # Architecture boundaries
//
// credo is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types ([Profile], [SessionSnapshot], etc.).
// The two storage backends stay behind one interface chosen at Build time:
// the Redis-backed directory store is internal to the package, and the
// remote identity service is supplied by the caller through
// [IdentityService] and [ProfileService].
//
// # What this package must NOT do
//
//   - Expose Redis clients, backend adapters, or encoding details in its
//     public API.
//   - Toggle between remote and local mode after Build.
//   - Let the admin role be restricted by stored permission overrides.
package credo
