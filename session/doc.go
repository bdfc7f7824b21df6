// Package session provides the observable session-state container for the
// identity engine. It holds at most one authenticated profile per process
// and publishes state transitions to subscribers.
//
// The observer has a single writer: the engine's session logic. All other
// code reads snapshots or subscribes. Subscriptions are teardown-safe; an
// unsubscribed or closed observer never invokes a callback again, even
// when a publish is in flight on another goroutine.
package session
