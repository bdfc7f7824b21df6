package credo

import (
	"context"
	"errors"
	"testing"
)

func TestSignInLocalEndToEnd(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newLocalTestEngine(t, rdb)
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := engine.Session().State; got != SessionUnauthenticated {
		t.Fatalf("expected Unauthenticated on fresh backend, got %v", got)
	}

	mustRegister(t, engine, RegisterRequest{
		Email:    "a@b.com",
		Password: "pw123456",
		Nombre:   "Ana",
	})
	if got := engine.Session().State; got != SessionUnauthenticated {
		t.Fatalf("expected Unauthenticated after register, got %v", got)
	}

	profile, err := engine.SignIn(ctx, "a@b.com", "pw123456")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if profile.Role != RoleAdmin {
		t.Fatalf("expected first user admin, got %q", profile.Role)
	}

	snapshot := engine.Session()
	if snapshot.State != SessionAuthenticated {
		t.Fatalf("expected Authenticated, got %v", snapshot.State)
	}
	if snapshot.Profile.Email != "a@b.com" {
		t.Fatalf("unexpected session profile: %+v", snapshot.Profile)
	}
}

func TestSignInByUsername(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newLocalTestEngine(t, rdb)

	mustRegister(t, engine, RegisterRequest{
		Email:    "ana@iglesia.app",
		Password: "pw123456",
		Username: "ana",
	})

	profile, err := engine.SignIn(ctx, "ANA", "pw123456")
	if err != nil {
		t.Fatalf("SignIn by username failed: %v", err)
	}
	if profile.Email != "ana@iglesia.app" {
		t.Fatalf("resolved wrong profile: %+v", profile)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newLocalTestEngine(t, rdb)

	mustRegister(t, engine, RegisterRequest{Email: "ana@iglesia.app", Password: "pw123456"})

	_, err := engine.SignIn(ctx, "ana@iglesia.app", "nope-nope")
	if !errors.Is(err, ErrWrongCredential) {
		t.Fatalf("expected ErrWrongCredential, got %v", err)
	}
}

func TestSignInUnknownUsername(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newLocalTestEngine(t, rdb)

	_, err := engine.SignIn(context.Background(), "nadie", "pw123456")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSignInDisabledAccount(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newLocalTestEngine(t, rdb)

	mustRegister(t, engine, RegisterRequest{Email: "ana@iglesia.app", Password: "pw123456"})

	store := engine.backend.(*localBackend).store
	profile, err := store.FindByEmailOrUsername(ctx, "ana@iglesia.app")
	if err != nil || profile == nil {
		t.Fatalf("lookup failed: %v", err)
	}
	profile.Status = StatusInactivo
	if err := store.Upsert(ctx, *profile); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	_, err = engine.SignIn(ctx, "ana@iglesia.app", "pw123456")
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if engine.Session().State == SessionAuthenticated {
		t.Fatal("disabled account must not authenticate the session")
	}
}

func TestSignInRateLimited(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	cfg := newTestConfig()
	cfg.Security.EnableLoginThrottle = true
	cfg.Security.MaxLoginAttempts = 2

	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	mustRegister(t, engine, RegisterRequest{Email: "ana@iglesia.app", Password: "pw123456"})

	for i := 0; i < 3; i++ {
		if _, err := engine.SignIn(ctx, "ana@iglesia.app", "wrong-pass"); err == nil {
			t.Fatal("expected failure")
		}
	}

	// Even the correct password is rejected while the window is hot.
	_, err = engine.SignIn(ctx, "ana@iglesia.app", "pw123456")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after exceeding attempts, got %v", err)
	}
}

func TestSignInResetsLimiterOnSuccess(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	cfg := newTestConfig()
	cfg.Security.EnableLoginThrottle = true
	cfg.Security.MaxLoginAttempts = 3

	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	mustRegister(t, engine, RegisterRequest{Email: "ana@iglesia.app", Password: "pw123456"})

	if _, err := engine.SignIn(ctx, "ana@iglesia.app", "wrong"); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := engine.SignIn(ctx, "ana@iglesia.app", "pw123456"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if rdb.Exists(ctx, "cl:ana@iglesia.app").Val() != 0 {
		t.Fatal("expected limiter counter reset after successful sign-in")
	}
}

func TestSignOutPublishesUnauthenticated(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newLocalTestEngine(t, rdb)

	mustRegister(t, engine, RegisterRequest{Email: "ana@iglesia.app", Password: "pw123456"})
	if _, err := engine.SignIn(ctx, "ana@iglesia.app", "pw123456"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if err := engine.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if got := engine.Session().State; got != SessionUnauthenticated {
		t.Fatalf("expected Unauthenticated after sign out, got %v", got)
	}

	store := engine.backend.(*localBackend).store
	persisted, err := store.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if persisted != nil {
		t.Fatal("expected persisted session cleared")
	}
}

func TestStartRestoresPersistedLocalSession(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	first := newLocalTestEngine(t, rdb)
	mustRegister(t, first, RegisterRequest{Email: "ana@iglesia.app", Password: "pw123456"})
	if _, err := first.SignIn(ctx, "ana@iglesia.app", "pw123456"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	first.Close()

	second := newLocalTestEngine(t, rdb)
	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snapshot := second.Session()
	if snapshot.State != SessionAuthenticated {
		t.Fatalf("expected restored Authenticated session, got %v", snapshot.State)
	}
	if snapshot.Profile.Email != "ana@iglesia.app" {
		t.Fatalf("restored wrong profile: %+v", snapshot.Profile)
	}
}

func TestSignInRemoteBootstrapsMissingProfile(t *testing.T) {
	identity := newFakeIdentityService()
	identity.creds["orphan@iglesia.app"] = "pw123456"
	identity.ids["orphan@iglesia.app"] = "uid-orphan"

	profiles := newFakeProfileService()
	engine := newRemoteTestEngine(t, identity, profiles)

	ctx := context.Background()
	profile, err := engine.SignIn(ctx, "orphan@iglesia.app", "pw123456")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if profile.ID != "uid-orphan" {
		t.Fatalf("expected bootstrapped profile keyed by identity id, got %q", profile.ID)
	}
	if profile.Role != RoleMiembro || profile.Status != StatusActivo {
		t.Fatalf("unexpected bootstrap defaults: role=%q status=%q", profile.Role, profile.Status)
	}

	stored, err := profiles.GetProfile(ctx, "uid-orphan")
	if err != nil || stored == nil {
		t.Fatalf("expected bootstrap profile persisted, err=%v", err)
	}
}

func TestSignInWithProviderCancelled(t *testing.T) {
	identity := newFakeIdentityService()
	profiles := newFakeProfileService()
	engine := newRemoteTestEngine(t, identity, profiles)

	profile, err := engine.SignIn(context.Background(), "", "")
	if profile != nil || err == nil {
		t.Fatal("empty sign-in must fail")
	}

	got, err := engine.SignInWithProvider(context.Background(), ProviderGoogle)
	if err != nil {
		t.Fatalf("cancelled provider flow must not error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil profile on cancellation, got %+v", got)
	}
	if engine.Session().State == SessionAuthenticated {
		t.Fatal("cancellation must not authenticate")
	}
}

func TestSignInWithProviderBootstrapSplitsDisplayName(t *testing.T) {
	identity := newFakeIdentityService()
	identity.providerIdentity = &Identity{
		ID:          "uid-google",
		Email:       "maria@iglesia.app",
		DisplayName: "Maria Jose Lopez",
	}

	profiles := newFakeProfileService()
	engine := newRemoteTestEngine(t, identity, profiles)

	profile, err := engine.SignInWithProvider(context.Background(), ProviderGoogle)
	if err != nil {
		t.Fatalf("SignInWithProvider failed: %v", err)
	}
	if profile.Nombre != "Maria" {
		t.Fatalf("expected nombre %q, got %q", "Maria", profile.Nombre)
	}
	if profile.Apellido != "Jose Lopez" {
		t.Fatalf("expected apellido %q, got %q", "Jose Lopez", profile.Apellido)
	}
	if engine.Session().State != SessionAuthenticated {
		t.Fatal("expected Authenticated after provider sign-in")
	}
}

func TestSignInWithProviderUnsupportedLocally(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newLocalTestEngine(t, rdb)

	_, err := engine.SignInWithProvider(context.Background(), ProviderApple)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported in local mode, got %v", err)
	}
}

func TestRemoteAuthStateStreamDrivesSession(t *testing.T) {
	identity := newFakeIdentityService()
	identity.creds["ana@iglesia.app"] = "pw123456"
	identity.ids["ana@iglesia.app"] = "uid-ana"

	profiles := newFakeProfileService()
	profiles.profiles["uid-ana"] = Profile{
		ID:     "uid-ana",
		Email:  "ana@iglesia.app",
		Nombre: "Ana",
		Role:   RoleSupervisor,
		Status: StatusActivo,
	}
	ana := identity.identityFor("ana@iglesia.app")
	identity.current = &ana

	engine := newRemoteTestEngine(t, identity, profiles)

	var transitions []SessionState
	unsubscribe := engine.OnSessionChange(func(s SessionSnapshot) {
		transitions = append(transitions, s.State)
	})
	defer unsubscribe()

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snapshot := engine.Session()
	if snapshot.State != SessionAuthenticated {
		t.Fatalf("expected Authenticated from replayed auth state, got %v", snapshot.State)
	}
	if snapshot.Profile.Role != RoleSupervisor {
		t.Fatalf("unexpected profile in session: %+v", snapshot.Profile)
	}

	// Backend-driven sign-out must flow through the same stream.
	identity.mu.Lock()
	watcher := identity.watcher
	identity.mu.Unlock()
	watcher(nil)

	if got := engine.Session().State; got != SessionUnauthenticated {
		t.Fatalf("expected Unauthenticated after stream sign-out, got %v", got)
	}
	if len(transitions) < 2 {
		t.Fatalf("expected subscriber to observe transitions, got %v", transitions)
	}
}
