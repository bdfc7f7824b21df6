package credo

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Register creates a credential and profile for a new user without
// authenticating them; a subsequent explicit SignIn is required. The first
// profile ever created in the active backend, and any registration using
// the configured bootstrap admin email, receives the admin role; everyone
// else starts as miembro.
//
// Uniqueness checks are best-effort, not transactional: two concurrent
// registrations racing the same username can both pass the check before
// either commits.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if email == "" || !strings.Contains(email, "@") {
		return e.registerFailure(ctx, email, MapCode(CodeInvalidEmail), "invalid_email")
	}
	if len(req.Password) < e.config.Password.MinLength {
		return e.registerFailure(ctx, email, ErrWeakCredential, "password_too_short")
	}

	if username != "" {
		existing, err := e.backend.findByUsername(ctx, username)
		if err != nil {
			return e.registerFailure(ctx, email, err, "username_lookup_failed")
		}
		if existing != nil {
			return e.registerFailure(ctx, email, ErrUsernameTaken, "username_taken")
		}
	}

	role := RoleMiembro
	hasAny, err := e.backend.hasAnyProfile(ctx)
	if err != nil {
		return e.registerFailure(ctx, email, err, "first_user_check_failed")
	}
	if !hasAny || e.isBootstrapAdmin(email) {
		role = RoleAdmin
	}

	now := time.Now().UTC()
	profile := Profile{
		Email:           email,
		Username:        username,
		Nombre:          req.Nombre,
		Apellido:        req.Apellido,
		Telefono:        req.Telefono,
		FechaNacimiento: req.FechaNacimiento,
		Direccion:       req.Direccion,
		GrupoID:         req.GrupoID,
		Role:            role,
		Status:          StatusActivo,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if e.backend.mode() == ModeLocal {
		profile.ID = uuid.NewString()
	}

	created, err := e.backend.signUp(ctx, req.Password, profile)
	if err != nil {
		return e.registerFailure(ctx, email, err, "sign_up_failed")
	}

	// Notification write is best-effort; the admin feed missing an entry
	// must not fail an otherwise complete registration.
	notification := Notification{
		ID:        uuid.NewString(),
		Type:      "new_user",
		ProfileID: created.ID,
		Email:     created.Email,
		CreatedAt: now,
	}
	if err := e.backend.appendNotification(ctx, notification); err != nil {
		log.Print("credo: new user notification write failed")
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, created.ID, created.Email, nil, func() map[string]string {
		return map[string]string{
			"role": string(created.Role),
		}
	})

	return nil
}

func (e *Engine) registerFailure(ctx context.Context, email string, opErr error, reason string) error {
	e.metricInc(MetricRegisterFailure)
	e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, opErr, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	return opErr
}

func (e *Engine) isBootstrapAdmin(email string) bool {
	admin := strings.ToLower(strings.TrimSpace(e.config.Bootstrap.AdminEmail))
	return admin != "" && admin == email
}
