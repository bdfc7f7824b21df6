package credo

import (
	"context"
	"time"

	"github.com/iglesia-app/credo/session"
)

// Role is the closed set of roles a [Profile] can carry. The admin role is
// exempt from permission overrides by invariant; all other roles resolve
// their module visibility through the permission catalog and stored
// overrides.
type Role string

const (
	// RoleAdmin is an exported constant or variable used by the identity engine.
	RoleAdmin Role = "admin"
	// RoleSupervisor is an exported constant or variable used by the identity engine.
	RoleSupervisor Role = "supervisor"
	// RoleLider is an exported constant or variable used by the identity engine.
	RoleLider Role = "lider"
	// RoleMiembro is an exported constant or variable used by the identity engine.
	RoleMiembro Role = "miembro"
	// RoleInvitado is an exported constant or variable used by the identity engine.
	RoleInvitado Role = "invitado"
)

// Roles lists every valid role, admin first.
func Roles() []Role {
	return []Role{RoleAdmin, RoleSupervisor, RoleLider, RoleMiembro, RoleInvitado}
}

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleLider, RoleMiembro, RoleInvitado:
		return true
	}
	return false
}

// Status is the lifecycle state of a [Profile].
type Status string

const (
	// StatusActivo is an exported constant or variable used by the identity engine.
	StatusActivo Status = "activo"
	// StatusPendiente is an exported constant or variable used by the identity engine.
	StatusPendiente Status = "pendiente"
	// StatusInactivo is an exported constant or variable used by the identity engine.
	StatusInactivo Status = "inactivo"
)

// Profile is the domain user record, distinct from the credential. The
// PasswordHash field is populated only by the local directory backend; in
// remote mode the identity service owns credentials and the field stays
// empty.
type Profile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username,omitempty"`
	Nombre          string    `json:"nombre"`
	Apellido        string    `json:"apellido,omitempty"`
	Telefono        string    `json:"telefono,omitempty"`
	FechaNacimiento string    `json:"fechaNacimiento,omitempty"`
	Direccion       string    `json:"direccion,omitempty"`
	Role            Role      `json:"role"`
	Status          Status    `json:"status"`
	GrupoID         string    `json:"grupoId,omitempty"`
	PasswordHash    string    `json:"passwordHash,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Identity is the opaque authenticated principal issued by whichever
// backend verified the credential. ProviderToken carries the raw provider
// ID token after a social sign-in, when the identity service exposes one;
// the engine only reads display-name and email claims from it during
// profile bootstrap.
type Identity struct {
	ID            string
	Email         string
	DisplayName   string
	ProviderToken string
}

// ProviderKind selects the federated provider for social sign-in.
type ProviderKind string

const (
	// ProviderGoogle is an exported constant or variable used by the identity engine.
	ProviderGoogle ProviderKind = "google"
	// ProviderApple is an exported constant or variable used by the identity engine.
	ProviderApple ProviderKind = "apple"
)

// Notification is the internal record enqueued when registration creates a
// new user. Admin-facing screens consume these; the engine only writes
// them.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ProfileID string    `json:"profileId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRequest is the input for [Engine.Register]. Email and Password
// are required; the remaining profile fields are free-form.
type RegisterRequest struct {
	Email           string
	Password        string
	Username        string
	Nombre          string
	Apellido        string
	Telefono        string
	FechaNacimiento string
	Direccion       string
	GrupoID         string
}

// IdentityService is the remote identity endpoint that callers must
// implement to run the engine in remote mode. Every method may fail with a
// backend-specific code; implementations should return errors produced by
// [MapCode] so the engine observes the package taxonomy.
//
// SignInWithProvider returns (nil, nil) when the user cancels the provider
// consent screen; cancellation is not an error.
type IdentityService interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignInWithProvider(ctx context.Context, kind ProviderKind) (*Identity, error)
	SignOut(ctx context.Context) error
	OnAuthStateChanged(cb func(*Identity)) (unsubscribe func())
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	SendPasswordReset(ctx context.Context, email string) error
}

// ProfileService is the remote profile document collection, keyed by
// identity id and queryable by username. GetProfile and FindByUsername
// return (nil, nil) when no document matches.
type ProfileService interface {
	GetProfile(ctx context.Context, identityID string) (*Profile, error)
	CreateProfile(ctx context.Context, identityID string, p Profile) error
	UpdateProfile(ctx context.Context, identityID string, fields map[string]any) error
	FindByUsername(ctx context.Context, username string) (*Profile, error)
	HasAnyProfile(ctx context.Context) (bool, error)
	AppendNotification(ctx context.Context, n Notification) error
	LoadOverrides(ctx context.Context, role Role) (map[string]bool, error)
	SaveOverrides(ctx context.Context, role Role, overrides map[string]bool) error
	DeleteOverrides(ctx context.Context, role Role) error
}

// PasswordAdministrator is an optional capability of a [ProfileService]
// deployment whose backing service allows setting another user's password
// server-side. [Engine.IssueTemporaryPassword] requires it in remote mode
// and fails with [ErrUnsupported] when the capability is absent.
type PasswordAdministrator interface {
	SetUserPassword(ctx context.Context, identityID, newPassword string) error
}

// SessionState is the observable state of the single process session.
type SessionState = session.State

const (
	// SessionLoading is an exported constant or variable used by the identity engine.
	SessionLoading = session.Loading
	// SessionAuthenticated is an exported constant or variable used by the identity engine.
	SessionAuthenticated = session.Authenticated
	// SessionUnauthenticated is an exported constant or variable used by the identity engine.
	SessionUnauthenticated = session.Unauthenticated
)

// SessionSnapshot is a point-in-time view of the session observer.
type SessionSnapshot = session.Snapshot[Profile]

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}
