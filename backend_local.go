package credo

import (
	"context"
	"strings"

	"github.com/iglesia-app/credo/password"
)

// localBackend verifies credentials against the Redis directory. Password
// hashes live inside the profile records; nothing leaves the process.
type localBackend struct {
	store  *directoryStore
	hasher *password.Hasher

	upgradeOnLogin bool
}

func newLocalBackend(store *directoryStore, hasher *password.Hasher, upgradeOnLogin bool) *localBackend {
	return &localBackend{
		store:          store,
		hasher:         hasher,
		upgradeOnLogin: upgradeOnLogin,
	}
}

func (b *localBackend) mode() Mode { return ModeLocal }

func (b *localBackend) signIn(ctx context.Context, email, password string) (Identity, *Profile, error) {
	profile, err := b.store.FindByEmailOrUsername(ctx, email)
	if err != nil {
		return Identity{}, nil, err
	}
	if profile == nil {
		return Identity{}, nil, MapCode(CodeUserNotFound)
	}

	ok, err := b.hasher.Verify(password, profile.PasswordHash)
	if err != nil || !ok {
		return Identity{}, nil, MapCode(CodeWrongPassword)
	}

	if b.upgradeOnLogin {
		if upgrade, err := b.hasher.NeedsUpgrade(profile.PasswordHash); err == nil && upgrade {
			if rehashed, err := b.hasher.Hash(password); err == nil {
				profile.PasswordHash = rehashed
				if err := b.store.Upsert(ctx, *profile); err != nil {
					return Identity{}, nil, err
				}
			}
		}
	}

	identity := Identity{
		ID:          profile.ID,
		Email:       profile.Email,
		DisplayName: strings.TrimSpace(profile.Nombre + " " + profile.Apellido),
	}
	return identity, profile, nil
}

func (b *localBackend) signUp(ctx context.Context, rawPassword string, p Profile) (Profile, error) {
	if existing, err := b.store.FindByEmailOrUsername(ctx, p.Email); err != nil {
		return Profile{}, err
	} else if existing != nil {
		return Profile{}, MapCode(CodeEmailInUse)
	}

	if p.Username != "" {
		if existing, err := b.store.FindByEmailOrUsername(ctx, p.Username); err != nil {
			return Profile{}, err
		} else if existing != nil {
			return Profile{}, MapCode(CodeUsernameTaken)
		}
	}

	hash, err := b.hasher.Hash(rawPassword)
	if err != nil {
		return Profile{}, err
	}
	p.PasswordHash = hash

	if err := b.store.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (b *localBackend) signInWithProvider(ctx context.Context, kind ProviderKind) (*Identity, *Profile, error) {
	return nil, nil, ErrUnsupported
}

func (b *localBackend) signOut(ctx context.Context) error {
	return b.store.SetSession(ctx, nil)
}

func (b *localBackend) restoreSession(ctx context.Context) (*Profile, error) {
	return b.store.GetSession(ctx)
}

func (b *localBackend) persistSession(ctx context.Context, p *Profile) error {
	return b.store.SetSession(ctx, p)
}

func (b *localBackend) watchAuthState(cb func(*Identity)) (stop func()) {
	return func() {}
}

func (b *localBackend) getProfile(ctx context.Context, id string) (*Profile, error) {
	profiles, err := b.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

func (b *localBackend) createProfile(ctx context.Context, id string, p Profile) error {
	p.ID = id
	return b.store.Upsert(ctx, p)
}

func (b *localBackend) updateProfile(ctx context.Context, id string, fields map[string]any) error {
	profile, err := b.getProfile(ctx, id)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrNotFound
	}
	applyProfileFields(profile, fields)
	return b.store.Upsert(ctx, *profile)
}

func (b *localBackend) findByUsername(ctx context.Context, username string) (*Profile, error) {
	return b.store.FindByEmailOrUsername(ctx, username)
}

func (b *localBackend) hasAnyProfile(ctx context.Context) (bool, error) {
	return b.store.HasAny(ctx)
}

func (b *localBackend) appendNotification(ctx context.Context, n Notification) error {
	return b.store.AppendNotification(ctx, n)
}

func (b *localBackend) changePassword(ctx context.Context, p Profile, currentPassword, newPassword string) (Profile, error) {
	stored, err := b.getProfile(ctx, p.ID)
	if err != nil {
		return Profile{}, err
	}
	if stored == nil {
		return Profile{}, MapCode(CodeUserNotFound)
	}

	ok, err := b.hasher.Verify(currentPassword, stored.PasswordHash)
	if err != nil || !ok {
		return Profile{}, MapCode(CodeWrongPassword)
	}

	hash, err := b.hasher.Hash(newPassword)
	if err != nil {
		return Profile{}, err
	}
	stored.PasswordHash = hash

	if err := b.store.Upsert(ctx, *stored); err != nil {
		return Profile{}, err
	}
	return *stored, nil
}

func (b *localBackend) setUserPassword(ctx context.Context, target Profile, newPassword string) error {
	stored, err := b.getProfile(ctx, target.ID)
	if err != nil {
		return err
	}
	if stored == nil {
		return MapCode(CodeUserNotFound)
	}

	hash, err := b.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	stored.PasswordHash = hash
	return b.store.Upsert(ctx, *stored)
}

func (b *localBackend) sendPasswordReset(ctx context.Context, email string) error {
	return ErrUnsupported
}

func (b *localBackend) loadOverrides(ctx context.Context, role Role) (map[string]bool, error) {
	return b.store.LoadOverrides(ctx, string(role))
}

func (b *localBackend) saveOverrides(ctx context.Context, role Role, overrides map[string]bool) error {
	return b.store.SaveOverrides(ctx, string(role), overrides)
}

func (b *localBackend) deleteOverrides(ctx context.Context, role Role) error {
	return b.store.DeleteOverrides(ctx, string(role))
}

// applyProfileFields mutates p with the subset of updatable profile fields
// present in fields. Unknown keys are ignored; identity, role, and
// credential fields cannot be changed through this path.
func applyProfileFields(p *Profile, fields map[string]any) {
	for key, value := range fields {
		s, ok := value.(string)
		if !ok {
			continue
		}
		switch key {
		case "nombre":
			p.Nombre = s
		case "apellido":
			p.Apellido = s
		case "telefono":
			p.Telefono = s
		case "fechaNacimiento":
			p.FechaNacimiento = s
		case "direccion":
			p.Direccion = s
		case "grupoId":
			p.GrupoID = s
		case "username":
			p.Username = s
		case "status":
			p.Status = Status(s)
		}
	}
}
