package credo

import (
	"context"
	"sync"
	"testing"
)

func newTestDirectoryStore(t *testing.T) *directoryStore {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(mr.Close)
	return newDirectoryStore(rdb, "")
}

func TestDirectoryStoreUpsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := newTestDirectoryStore(t)

	profile := Profile{
		ID:       "p1",
		Email:    "ana@iglesia.app",
		Username: "ana",
		Nombre:   "Ana",
		Role:     RoleMiembro,
		Status:   StatusActivo,
	}
	if err := store.Upsert(ctx, profile); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	byEmail, err := store.FindByEmailOrUsername(ctx, "ANA@iglesia.app")
	if err != nil {
		t.Fatalf("find by email failed: %v", err)
	}
	if byEmail == nil || byEmail.ID != "p1" {
		t.Fatalf("expected p1 by email, got %+v", byEmail)
	}

	byUsername, err := store.FindByEmailOrUsername(ctx, "  Ana  ")
	if err != nil {
		t.Fatalf("find by username failed: %v", err)
	}
	if byUsername == nil || byUsername.ID != "p1" {
		t.Fatalf("expected p1 by username, got %+v", byUsername)
	}

	missing, err := store.FindByEmailOrUsername(ctx, "nadie")
	if err != nil {
		t.Fatalf("find missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown identifier, got %+v", missing)
	}
}

func TestDirectoryStoreUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	store := newTestDirectoryStore(t)

	profile := Profile{ID: "p1", Email: "ana@iglesia.app", Nombre: "Ana"}
	if err := store.Upsert(ctx, profile); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	profile.Nombre = "Ana Maria"
	if err := store.Upsert(ctx, profile); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	profiles, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile after replace, got %d", len(profiles))
	}
	if profiles[0].Nombre != "Ana Maria" {
		t.Fatalf("expected replaced profile, got %+v", profiles[0])
	}
}

func TestDirectoryStoreConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	store := newTestDirectoryStore(t)

	// Well past the WATCH retry budget so the writers rely on the
	// store-level serialization rather than optimistic luck.
	const n = 24
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Upsert(ctx, Profile{
				ID:    string(rune('a' + i)),
				Email: string(rune('a'+i)) + "@iglesia.app",
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Upsert failed: %v", err)
		}
	}

	profiles, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(profiles) != n {
		t.Fatalf("expected %d profiles, got %d", n, len(profiles))
	}
}

func TestDirectoryStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestDirectoryStore(t)

	empty, err := store.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected no session, got %+v", empty)
	}

	profile := Profile{ID: "p1", Email: "ana@iglesia.app", Role: RoleAdmin}
	if err := store.SetSession(ctx, &profile); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	got, err := store.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.ID != "p1" || got.Role != RoleAdmin {
		t.Fatalf("unexpected session: %+v", got)
	}

	// nil clears.
	if err := store.SetSession(ctx, nil); err != nil {
		t.Fatalf("SetSession(nil) failed: %v", err)
	}
	cleared, err := store.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if cleared != nil {
		t.Fatalf("expected cleared session, got %+v", cleared)
	}
}

func TestDirectoryStoreOverridesLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestDirectoryStore(t)

	absent, err := store.LoadOverrides(ctx, "miembro")
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for absent overrides, got %v", absent)
	}

	want := map[string]bool{"reportes": true, "grupos": false}
	if err := store.SaveOverrides(ctx, "miembro", want); err != nil {
		t.Fatalf("SaveOverrides failed: %v", err)
	}

	got, err := store.LoadOverrides(ctx, "miembro")
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}
	if len(got) != len(want) || got["reportes"] != true || got["grupos"] != false {
		t.Fatalf("unexpected overrides: %v", got)
	}

	if err := store.DeleteOverrides(ctx, "miembro"); err != nil {
		t.Fatalf("DeleteOverrides failed: %v", err)
	}
	gone, err := store.LoadOverrides(ctx, "miembro")
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected nil after delete, got %v", gone)
	}
}

func TestDirectoryStoreHasAny(t *testing.T) {
	ctx := context.Background()
	store := newTestDirectoryStore(t)

	any, err := store.HasAny(ctx)
	if err != nil {
		t.Fatalf("HasAny failed: %v", err)
	}
	if any {
		t.Fatal("expected empty directory")
	}

	if err := store.Upsert(ctx, Profile{ID: "p1", Email: "a@b.com"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	any, err = store.HasAny(ctx)
	if err != nil {
		t.Fatalf("HasAny failed: %v", err)
	}
	if !any {
		t.Fatal("expected directory to report users")
	}
}
