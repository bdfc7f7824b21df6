package credo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iglesia-app/credo/idtoken"
)

// bootstrapProfile synthesizes and persists a minimal profile for an
// authenticated identity that has none, then re-fetches the stored form so
// backend-side defaults are reflected in the session. This is the recovery
// path for orphaned credentials (registration that failed after credential
// creation) and the first sign-in through a federated provider.
func (e *Engine) bootstrapProfile(ctx context.Context, identity Identity) (*Profile, error) {
	email := identity.Email
	display := identity.DisplayName
	var givenName, familyName string

	if identity.ProviderToken != "" {
		if claims, err := idtoken.Parse(identity.ProviderToken); err == nil {
			if email == "" {
				email = claims.Email
			}
			if display == "" {
				display = claims.Name
			}
			givenName, familyName = claims.GivenName, claims.FamilyName
		}
	}

	nombre, apellido := splitDisplayName(display)
	if givenName != "" {
		nombre, apellido = givenName, familyName
	}
	if nombre == "" {
		nombre = localPart(email)
	}

	id := identity.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	profile := Profile{
		ID:        id,
		Email:     email,
		Nombre:    nombre,
		Apellido:  apellido,
		Role:      RoleMiembro,
		Status:    StatusActivo,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.backend.createProfile(ctx, id, profile); err != nil {
		return nil, err
	}

	stored, err := e.backend.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = &profile
	}

	e.metricInc(MetricBootstrapCreated)
	e.emitAudit(ctx, auditEventBootstrapCreated, true, stored.ID, stored.Email, nil, nil)

	return stored, nil
}

// splitDisplayName maps a provider display name onto the nombre/apellido
// pair: first token is the given name, everything after it the surname.
func splitDisplayName(display string) (nombre, apellido string) {
	display = strings.TrimSpace(display)
	if display == "" {
		return "", ""
	}

	parts := strings.Fields(display)
	nombre = parts[0]
	if len(parts) > 1 {
		apellido = strings.Join(parts[1:], " ")
	}
	return nombre, apellido
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
