package credo

import "context"

// remoteBackend delegates credential verification to a caller-provided
// identity service and keeps profile documents in the caller's profile
// service. The engine never sees raw credentials after the call returns.
type remoteBackend struct {
	identity IdentityService
	profiles ProfileService
}

func newRemoteBackend(identity IdentityService, profiles ProfileService) *remoteBackend {
	return &remoteBackend{identity: identity, profiles: profiles}
}

func (b *remoteBackend) mode() Mode { return ModeRemote }

func (b *remoteBackend) signIn(ctx context.Context, email, password string) (Identity, *Profile, error) {
	identity, err := b.identity.SignIn(ctx, email, password)
	if err != nil {
		return Identity{}, nil, err
	}

	profile, err := b.profiles.GetProfile(ctx, identity.ID)
	if err != nil {
		return Identity{}, nil, err
	}
	return identity, profile, nil
}

func (b *remoteBackend) signUp(ctx context.Context, password string, p Profile) (Profile, error) {
	identity, err := b.identity.SignUp(ctx, p.Email, password)
	if err != nil {
		return Profile{}, err
	}

	p.ID = identity.ID
	if err := b.profiles.CreateProfile(ctx, identity.ID, p); err != nil {
		return Profile{}, err
	}

	// Registration must not leave the new user authenticated; the identity
	// service signs callers in as a side effect of credential creation.
	if err := b.identity.SignOut(ctx); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (b *remoteBackend) signInWithProvider(ctx context.Context, kind ProviderKind) (*Identity, *Profile, error) {
	identity, err := b.identity.SignInWithProvider(ctx, kind)
	if err != nil {
		return nil, nil, err
	}
	if identity == nil {
		// User dismissed the consent screen.
		return nil, nil, nil
	}

	profile, err := b.profiles.GetProfile(ctx, identity.ID)
	if err != nil {
		return nil, nil, err
	}
	return identity, profile, nil
}

func (b *remoteBackend) signOut(ctx context.Context) error {
	return b.identity.SignOut(ctx)
}

func (b *remoteBackend) restoreSession(ctx context.Context) (*Profile, error) {
	// The identity service replays its current state through
	// watchAuthState on subscription; there is nothing to restore here.
	return nil, nil
}

func (b *remoteBackend) persistSession(ctx context.Context, p *Profile) error {
	return nil
}

func (b *remoteBackend) watchAuthState(cb func(*Identity)) (stop func()) {
	return b.identity.OnAuthStateChanged(cb)
}

func (b *remoteBackend) getProfile(ctx context.Context, id string) (*Profile, error) {
	return b.profiles.GetProfile(ctx, id)
}

func (b *remoteBackend) createProfile(ctx context.Context, id string, p Profile) error {
	return b.profiles.CreateProfile(ctx, id, p)
}

func (b *remoteBackend) updateProfile(ctx context.Context, id string, fields map[string]any) error {
	return b.profiles.UpdateProfile(ctx, id, fields)
}

func (b *remoteBackend) findByUsername(ctx context.Context, username string) (*Profile, error) {
	return b.profiles.FindByUsername(ctx, username)
}

func (b *remoteBackend) hasAnyProfile(ctx context.Context) (bool, error) {
	return b.profiles.HasAnyProfile(ctx)
}

func (b *remoteBackend) appendNotification(ctx context.Context, n Notification) error {
	return b.profiles.AppendNotification(ctx, n)
}

func (b *remoteBackend) changePassword(ctx context.Context, p Profile, currentPassword, newPassword string) (Profile, error) {
	if err := b.identity.ChangePassword(ctx, currentPassword, newPassword); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (b *remoteBackend) setUserPassword(ctx context.Context, target Profile, newPassword string) error {
	admin, ok := b.profiles.(PasswordAdministrator)
	if !ok {
		return ErrUnsupported
	}
	return admin.SetUserPassword(ctx, target.ID, newPassword)
}

func (b *remoteBackend) sendPasswordReset(ctx context.Context, email string) error {
	return b.identity.SendPasswordReset(ctx, email)
}

func (b *remoteBackend) loadOverrides(ctx context.Context, role Role) (map[string]bool, error) {
	return b.profiles.LoadOverrides(ctx, role)
}

func (b *remoteBackend) saveOverrides(ctx context.Context, role Role, overrides map[string]bool) error {
	return b.profiles.SaveOverrides(ctx, role, overrides)
}

func (b *remoteBackend) deleteOverrides(ctx context.Context, role Role) error {
	return b.profiles.DeleteOverrides(ctx, role)
}
