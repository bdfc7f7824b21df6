package session

import (
	"sync"
	"sync/atomic"
)

// State identifies the session lifecycle phase.
type State uint8

const (
	// Loading is an exported constant or variable used by the identity engine.
	Loading State = iota
	// Authenticated is an exported constant or variable used by the identity engine.
	Authenticated
	// Unauthenticated is an exported constant or variable used by the identity engine.
	Unauthenticated
)

// String reports the lowercase state name.
func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// Snapshot is a point-in-time view of the observer. Profile is the zero
// value unless State is [Authenticated].
type Snapshot[T any] struct {
	State   State
	Profile T
}

// Observer defines a public type used by credo APIs.
//
// Observer starts in [Loading] and moves between [Authenticated] and
// [Unauthenticated] as the single writer publishes. Reads and
// subscriptions are safe from any goroutine.
type Observer[T any] struct {
	mu     sync.Mutex
	state  State
	value  T
	closed bool
	nextID uint64
	subs   map[uint64]*guardedCallback[T]
}

// NewObserver creates an observer in the [Loading] state.
func NewObserver[T any]() *Observer[T] {
	return &Observer[T]{
		state: Loading,
		subs:  make(map[uint64]*guardedCallback[T]),
	}
}

// Current returns the latest published snapshot.
func (o *Observer[T]) Current() Snapshot[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot[T]{State: o.state, Profile: o.value}
}

// PublishAuthenticated transitions to [Authenticated] with the given
// profile and notifies subscribers. Publishing after [Observer.Close] is a
// no-op.
func (o *Observer[T]) PublishAuthenticated(profile T) {
	o.publish(Authenticated, profile)
}

// PublishUnauthenticated transitions to [Unauthenticated] and notifies
// subscribers. Publishing after [Observer.Close] is a no-op.
func (o *Observer[T]) PublishUnauthenticated() {
	var zero T
	o.publish(Unauthenticated, zero)
}

func (o *Observer[T]) publish(state State, value T) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.state = state
	o.value = value
	snapshot := Snapshot[T]{State: state, Profile: value}
	guards := make([]*guardedCallback[T], 0, len(o.subs))
	for _, g := range o.subs {
		guards = append(guards, g)
	}
	o.mu.Unlock()

	// Callbacks run outside the lock so a subscriber may re-read Current
	// or unsubscribe without deadlocking. Each guard suppresses delivery
	// once its subscription is torn down, even mid-publish.
	for _, g := range guards {
		g.invoke(snapshot)
	}
}

// Subscribe registers cb and immediately invokes it with the current
// snapshot. The returned function removes the subscription; no new
// delivery starts after it returns, though a delivery already running on
// another goroutine may finish.
func (o *Observer[T]) Subscribe(cb func(Snapshot[T])) (unsubscribe func()) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return func() {}
	}
	id := o.nextID
	o.nextID++
	guarded := &guardedCallback[T]{cb: cb}
	o.subs[id] = guarded
	initial := Snapshot[T]{State: o.state, Profile: o.value}
	o.mu.Unlock()

	guarded.invoke(initial)

	return func() {
		guarded.disable()
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Close tears the observer down: all subscriptions are dropped and a
// pending publish is suppressed before it reaches a callback. Close is
// idempotent.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	o.closed = true
	guards := o.subs
	o.subs = make(map[uint64]*guardedCallback[T])
	o.mu.Unlock()

	for _, g := range guards {
		g.disable()
	}
}

// guardedCallback suppresses invocations that race with unsubscribe: a
// publish may have copied the callback before the subscriber tore down.
// The flag is atomic rather than mutex-guarded so a subscriber may call
// its own unsubscribe from inside the callback without blocking on a
// delivery lock it already holds.
type guardedCallback[T any] struct {
	disabled atomic.Bool
	cb       func(Snapshot[T])
}

func (g *guardedCallback[T]) invoke(s Snapshot[T]) {
	if g.disabled.Load() {
		return
	}
	g.cb(s)
}

func (g *guardedCallback[T]) disable() {
	g.disabled.Store(true)
}
