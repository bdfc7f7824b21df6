// Package permission holds the static module catalog of the application,
// the out-of-box default visibility matrix per role, and the pure merge
// that overlays stored per-role overrides onto those defaults.
//
// The admin-is-unrestricted invariant is NOT implemented here: the engine
// guards admin before calling [Merge], which keeps the merge role-agnostic
// and unit-testable on plain maps.
package permission
