package session

import (
	"sync"
	"testing"
)

type profile struct {
	ID   string
	Name string
}

func TestObserverStartsLoading(t *testing.T) {
	o := NewObserver[profile]()

	snap := o.Current()
	if snap.State != Loading {
		t.Fatalf("expected Loading, got %v", snap.State)
	}
	if snap.Profile != (profile{}) {
		t.Fatalf("expected zero profile, got %+v", snap.Profile)
	}
}

func TestObserverPublishTransitions(t *testing.T) {
	o := NewObserver[profile]()

	o.PublishAuthenticated(profile{ID: "p1", Name: "Ana"})
	snap := o.Current()
	if snap.State != Authenticated || snap.Profile.ID != "p1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	o.PublishUnauthenticated()
	snap = o.Current()
	if snap.State != Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", snap.State)
	}
	if snap.Profile != (profile{}) {
		t.Fatalf("expected profile cleared, got %+v", snap.Profile)
	}
}

func TestSubscribeReceivesCurrentImmediately(t *testing.T) {
	o := NewObserver[profile]()
	o.PublishAuthenticated(profile{ID: "p1"})

	var got []Snapshot[profile]
	unsubscribe := o.Subscribe(func(s Snapshot[profile]) {
		got = append(got, s)
	})
	defer unsubscribe()

	if len(got) != 1 || got[0].State != Authenticated {
		t.Fatalf("expected immediate replay, got %v", got)
	}

	o.PublishUnauthenticated()
	if len(got) != 2 || got[1].State != Unauthenticated {
		t.Fatalf("expected live delivery, got %v", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	o := NewObserver[profile]()

	var calls int
	unsubscribe := o.Subscribe(func(Snapshot[profile]) { calls++ })
	if calls != 1 {
		t.Fatalf("expected initial replay, got %d", calls)
	}

	unsubscribe()
	o.PublishAuthenticated(profile{ID: "p1"})
	if calls != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", calls)
	}

	// Unsubscribing twice is harmless.
	unsubscribe()
}

func TestSubscriberMayUnsubscribeDuringCallback(t *testing.T) {
	o := NewObserver[profile]()

	var calls int
	var unsubscribe func()
	unsubscribe = o.Subscribe(func(s Snapshot[profile]) {
		calls++
		if s.State == Authenticated {
			unsubscribe()
		}
	})

	o.PublishAuthenticated(profile{ID: "p1"})
	o.PublishUnauthenticated()

	if calls != 2 {
		t.Fatalf("expected 2 deliveries (initial + authenticated), got %d", calls)
	}
}

func TestUnsubscribeInCallbackKeepsPublishAlive(t *testing.T) {
	o := NewObserver[profile]()

	var first, second int
	var unsubscribe func()
	unsubscribe = o.Subscribe(func(s Snapshot[profile]) {
		first++
		if s.State == Authenticated {
			unsubscribe()
		}
	})
	o.Subscribe(func(Snapshot[profile]) { second++ })

	// A subscriber tearing itself down mid-delivery must not wedge the
	// publisher or starve the remaining subscribers.
	o.PublishAuthenticated(profile{ID: "p1"})
	o.PublishUnauthenticated()

	if first != 2 {
		t.Fatalf("expected unsubscribed callback to stop after 2 deliveries, got %d", first)
	}
	if second != 3 {
		t.Fatalf("expected live subscriber to see every publish, got %d", second)
	}
}

func TestCloseDropsSubscriptions(t *testing.T) {
	o := NewObserver[profile]()

	var calls int
	o.Subscribe(func(Snapshot[profile]) { calls++ })

	o.Close()
	o.PublishAuthenticated(profile{ID: "p1"})
	if calls != 1 {
		t.Fatalf("expected only the initial replay, got %d", calls)
	}

	// Subscribing after Close returns a no-op unsubscribe and never
	// delivers.
	unsubscribe := o.Subscribe(func(Snapshot[profile]) { calls++ })
	unsubscribe()
	if calls != 1 {
		t.Fatalf("expected no delivery after close, got %d", calls)
	}

	o.Close() // idempotent
}

func TestObserverConcurrentPublishAndSubscribe(t *testing.T) {
	o := NewObserver[profile]()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				unsubscribe := o.Subscribe(func(Snapshot[profile]) {})
				unsubscribe()
			}
		}()
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				o.PublishAuthenticated(profile{ID: "p"})
				o.PublishUnauthenticated()
			}
		}()
	}
	wg.Wait()

	if got := o.Current().State; got != Authenticated && got != Unauthenticated {
		t.Fatalf("unexpected terminal state: %v", got)
	}
}

func TestStateString(t *testing.T) {
	if Loading.String() != "loading" || Authenticated.String() != "authenticated" || Unauthenticated.String() != "unauthenticated" {
		t.Fatal("unexpected state names")
	}
	if State(99).String() != "invalid" {
		t.Fatal("expected invalid for unknown state")
	}
}
