package credo

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iglesia-app/credo/internal/rate"
	"github.com/iglesia-app/credo/session"
)

// Engine defines a public type used by credo APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config      Config
	backend     authBackend
	observer    *session.Observer[Profile]
	rateLimiter *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics

	stopWatch func()
	startOnce sync.Once
	closeOnce sync.Once
}

// Mode reports which backend the engine resolved at build time.
func (e *Engine) Mode() Mode {
	if e == nil || e.backend == nil {
		return ModeLocal
	}
	return e.backend.mode()
}

// Start moves the session out of Loading by recovering any persisted or
// backend-held session. In remote mode it also subscribes to the identity
// service's auth-state stream for the life of the engine. Start is
// idempotent.
func (e *Engine) Start(ctx context.Context) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}

	var startErr error
	e.startOnce.Do(func() {
		if e.backend.mode() == ModeRemote {
			e.stopWatch = e.backend.watchAuthState(func(identity *Identity) {
				e.handleAuthState(context.Background(), identity)
			})
			return
		}

		profile, err := e.backend.restoreSession(ctx)
		if err != nil {
			// Recoverable: fall back to a signed-out session.
			log.Print("credo: session restore failed")
			e.publishUnauthenticated()
			return
		}
		if profile == nil {
			e.publishUnauthenticated()
			return
		}
		e.publishAuthenticated(*profile)
	})
	return startErr
}

// handleAuthState reacts to backend-driven identity changes. A nil
// identity means signed out. Profile fetch or bootstrap failures fall back
// to Unauthenticated rather than surfacing an error; there is no caller on
// this path.
func (e *Engine) handleAuthState(ctx context.Context, identity *Identity) {
	if identity == nil {
		e.publishUnauthenticated()
		return
	}

	profile, err := e.backend.getProfile(ctx, identity.ID)
	if err != nil {
		log.Print("credo: profile fetch failed on auth state change")
		e.publishUnauthenticated()
		return
	}
	if profile == nil {
		profile, err = e.bootstrapProfile(ctx, *identity)
		if err != nil {
			log.Print("credo: profile bootstrap failed on auth state change")
			e.publishUnauthenticated()
			return
		}
	}
	e.publishAuthenticated(*profile)
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.stopWatch != nil {
			e.stopWatch()
		}
		if e.observer != nil {
			e.observer.Close()
		}
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

// Session returns the current session snapshot.
func (e *Engine) Session() SessionSnapshot {
	if e == nil || e.observer == nil {
		return SessionSnapshot{State: SessionLoading}
	}
	return e.observer.Current()
}

// OnSessionChange subscribes cb to session transitions. cb is invoked
// immediately with the current snapshot and on every later transition
// until the returned unsubscribe runs.
func (e *Engine) OnSessionChange(cb func(SessionSnapshot)) (unsubscribe func()) {
	if e == nil || e.observer == nil {
		return func() {}
	}
	return e.observer.Subscribe(cb)
}

func (e *Engine) publishAuthenticated(p Profile) {
	if e.observer == nil {
		return
	}
	e.observer.PublishAuthenticated(p)
	e.metricInc(MetricSessionAuthenticated)
}

func (e *Engine) publishUnauthenticated() {
	if e.observer == nil {
		return
	}
	e.observer.PublishUnauthenticated()
	e.metricInc(MetricSessionUnauthenticated)
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// SignIn verifies the identifier (email or username) and password against
// the active backend and, on success, publishes an Authenticated session
// carrying the stored profile. When the credential is valid but no profile
// document exists (orphaned remote credential), a minimal profile is
// bootstrapped first.
func (e *Engine) SignIn(ctx context.Context, identifier, password string) (*Profile, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricSignInLatency, time.Since(start))
		}()
	}

	ip := clientIPFromContext(ctx)

	if e.rateLimiter != nil {
		if err := e.rateLimiter.Check(ctx, identifier, ip); err != nil {
			e.metricInc(MetricSignInRateLimited)
			e.emitAudit(ctx, auditEventSignInRateLimited, false, "", "", ErrRateLimited, func() map[string]string {
				return map[string]string{
					"identifier": identifier,
				}
			})
			e.emitRateLimit(ctx, "sign_in", identifier)
			return nil, ErrRateLimited
		}
	}

	if identifier == "" || password == "" {
		return nil, e.signInFailure(ctx, identifier, "", ErrWrongCredential, "empty_input")
	}

	email, err := e.ResolveLoginEmail(ctx, identifier)
	if err != nil {
		return nil, e.signInFailure(ctx, identifier, "", err, "resolve_failed")
	}

	identity, profile, err := e.backend.signIn(ctx, email, password)
	if err != nil {
		return nil, e.signInFailure(ctx, identifier, "", err, "credential_rejected")
	}

	if profile == nil {
		profile, err = e.bootstrapProfile(ctx, identity)
		if err != nil {
			return nil, e.signInFailure(ctx, identifier, identity.ID, err, "bootstrap_failed")
		}
	}

	if profile.Status == StatusInactivo {
		_ = e.backend.signOut(ctx)
		return nil, e.signInFailure(ctx, identifier, profile.ID, ErrDisabled, "account_status")
	}

	if e.rateLimiter != nil {
		// Limiter reset is best-effort and must not block a valid sign-in.
		if err := e.rateLimiter.Reset(ctx, identifier, ip); err != nil {
			log.Print("credo: login limiter reset failed")
		}
	}

	if err := e.backend.persistSession(ctx, profile); err != nil {
		log.Print("credo: session persist failed")
	}
	e.publishAuthenticated(*profile)

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignInSuccess, true, profile.ID, profile.Email, nil, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
		}
	})

	return profile, nil
}

func (e *Engine) signInFailure(ctx context.Context, identifier, profileID string, opErr error, reason string) error {
	if e.rateLimiter != nil {
		if err := e.rateLimiter.Increment(ctx, identifier, clientIPFromContext(ctx)); err != nil {
			e.metricInc(MetricSignInRateLimited)
			e.emitRateLimit(ctx, "sign_in", identifier)
			return ErrRateLimited
		}
	}
	e.metricInc(MetricSignInFailure)
	e.emitAudit(ctx, auditEventSignInFailure, false, profileID, "", opErr, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
			"reason":     reason,
		}
	})
	return opErr
}

// SignInWithProvider runs the federated provider flow. A (nil, nil) return
// means the user cancelled the consent screen. Local mode has no provider
// integration and fails with ErrUnsupported.
func (e *Engine) SignInWithProvider(ctx context.Context, kind ProviderKind) (*Profile, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	identity, profile, err := e.backend.signInWithProvider(ctx, kind)
	if err != nil {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInProvider, false, "", "", err, func() map[string]string {
			return map[string]string{
				"provider": string(kind),
			}
		})
		return nil, err
	}
	if identity == nil {
		e.metricInc(MetricSignInCancelled)
		e.emitAudit(ctx, auditEventSignInCancelled, true, "", "", nil, func() map[string]string {
			return map[string]string{
				"provider": string(kind),
			}
		})
		return nil, nil
	}

	if profile == nil {
		profile, err = e.bootstrapProfile(ctx, *identity)
		if err != nil {
			e.metricInc(MetricSignInFailure)
			e.emitAudit(ctx, auditEventSignInProvider, false, identity.ID, identity.Email, err, nil)
			return nil, err
		}
	}

	if profile.Status == StatusInactivo {
		_ = e.backend.signOut(ctx)
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInProvider, false, profile.ID, profile.Email, ErrDisabled, nil)
		return nil, ErrDisabled
	}

	if err := e.backend.persistSession(ctx, profile); err != nil {
		log.Print("credo: session persist failed")
	}
	e.publishAuthenticated(*profile)

	e.metricInc(MetricSignInProvider)
	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignInProvider, true, profile.ID, profile.Email, nil, func() map[string]string {
		return map[string]string{
			"provider": string(kind),
		}
	})

	return profile, nil
}

// SignOut clears the backend session and publishes Unauthenticated. It is
// safe to call while already signed out.
func (e *Engine) SignOut(ctx context.Context) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}

	current := e.Session()

	if err := e.backend.signOut(ctx); err != nil {
		e.emitAudit(ctx, auditEventSignOut, false, current.Profile.ID, current.Profile.Email, err, nil)
		return err
	}
	if err := e.backend.persistSession(ctx, nil); err != nil {
		log.Print("credo: session clear failed")
	}

	e.publishUnauthenticated()
	e.metricInc(MetricSignOut)
	e.emitAudit(ctx, auditEventSignOut, true, current.Profile.ID, current.Profile.Email, nil, nil)
	return nil
}
