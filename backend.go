package credo

import "context"

// authBackend is the seam between the engine's operations and whichever
// credential verifier the configuration selected. Exactly one
// implementation exists per Engine and it never changes after Build.
//
// All methods translate backend-native failures into the package error
// taxonomy before returning.
type authBackend interface {
	mode() Mode

	// signIn verifies the credential and returns the verified identity
	// plus the stored profile when one exists. A nil profile with a nil
	// error means the credential is valid but no profile document exists
	// yet; the engine bootstraps one from the identity.
	signIn(ctx context.Context, email, password string) (Identity, *Profile, error)

	// signUp creates the credential and the profile document without
	// leaving the new user authenticated.
	signUp(ctx context.Context, password string, p Profile) (Profile, error)

	// signInWithProvider runs the federated consent flow. A (nil, nil, nil)
	// return means the user cancelled; cancellation is not an error.
	signInWithProvider(ctx context.Context, kind ProviderKind) (*Identity, *Profile, error)

	signOut(ctx context.Context) error

	// restoreSession recovers a previously persisted session, returning
	// (nil, nil) when none exists. Backends that deliver their initial
	// state through watchAuthState instead may always return (nil, nil).
	restoreSession(ctx context.Context) (*Profile, error)

	// persistSession records p as the active session, or clears it when p
	// is nil. No-op for backends that manage sessions server-side.
	persistSession(ctx context.Context, p *Profile) error

	// watchAuthState subscribes to backend-driven identity changes and
	// returns a stop function. Backends without push semantics return a
	// no-op stop and never invoke cb.
	watchAuthState(cb func(*Identity)) (stop func())

	getProfile(ctx context.Context, id string) (*Profile, error)
	createProfile(ctx context.Context, id string, p Profile) error
	updateProfile(ctx context.Context, id string, fields map[string]any) error
	findByUsername(ctx context.Context, username string) (*Profile, error)
	hasAnyProfile(ctx context.Context) (bool, error)
	appendNotification(ctx context.Context, n Notification) error

	// changePassword re-verifies currentPassword for p before applying
	// newPassword, and returns the profile as stored afterwards.
	changePassword(ctx context.Context, p Profile, currentPassword, newPassword string) (Profile, error)

	// setUserPassword overwrites target's credential without knowing the
	// old one. Returns ErrUnsupported when the backend cannot do this.
	setUserPassword(ctx context.Context, target Profile, newPassword string) error

	sendPasswordReset(ctx context.Context, email string) error

	loadOverrides(ctx context.Context, role Role) (map[string]bool, error)
	saveOverrides(ctx context.Context, role Role, overrides map[string]bool) error
	deleteOverrides(ctx context.Context, role Role) error
}
